package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-engine/datastore"
	"insight-engine/models"
	"insight-engine/services"
)

type analyzeRequest struct {
	Repositories    []models.RepositoryAnalysis `json:"repositories" binding:"required"`
	ProjectContext  *models.ProjectContext      `json:"projectContext"`
	TargetProjectID string                      `json:"targetProjectId"`
}

func HandleAnalyze(analyzer *services.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("orgId")

		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "repositories are required"})
			return
		}

		result, err := analyzer.AnalyzeAndGenerate(c.Request.Context(), services.AnalyzeRequest{
			OrganizationID:  orgID,
			Repositories:    req.Repositories,
			ProjectContext:  req.ProjectContext,
			TargetProjectID: req.TargetProjectID,
		})
		if errors.Is(err, datastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "target project not found"})
			return
		}
		if err != nil {
			slog.Error("analysis failed", "org", orgID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
