package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-engine/datastore"
	"insight-engine/services"
)

type RouterOptions struct {
	Store         datastore.Gateway
	Predictions   *services.PredictionService
	Analyzer      *services.Analyzer
	WebhookSecret string
}

// NewRouter wires the invocation endpoints, dashboard reads and the GitHub webhook.
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	org := r.Group("/organizations/:orgId")
	org.POST("/predictions/run", HandleRunPredictions(opts.Predictions))
	org.GET("/predictions", HandleListPredictions(opts.Store))
	org.POST("/analyses", HandleAnalyze(opts.Analyzer))
	org.GET("/bottlenecks", HandleListBottlenecks(opts.Store))

	r.POST("/webhook/github", HandleGitHubWebhook(opts.Store, opts.WebhookSecret))

	return r
}
