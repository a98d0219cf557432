package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"

	"insight-engine/datastore"
	"insight-engine/services"
)

// HandleGitHubWebhook records pull request events. The organization (and
// optionally the project) comes from the org and project query parameters.
func HandleGitHubWebhook(store datastore.Gateway, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := github.ValidatePayload(c.Request, []byte(secret))
		if err != nil {
			slog.Warn("webhook payload rejected", "err", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid payload"})
			return
		}

		event, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse webhook"})
			return
		}

		switch e := event.(type) {
		case *github.PullRequestEvent:
			orgID := c.Query("org")
			if orgID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "org query parameter is required"})
				return
			}
			if e.PullRequest == nil || e.Repo == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "pull request payload is incomplete"})
				return
			}

			var projectID *string
			if p := c.Query("project"); p != "" {
				projectID = &p
			}
			repoFullName := fmt.Sprintf("%s/%s", e.Repo.GetOwner().GetLogin(), e.Repo.GetName())
			record := services.PullRequestFromGitHub(orgID, projectID, repoFullName, e.PullRequest)
			if err := store.UpsertPullRequest(c.Request.Context(), &record); err != nil {
				slog.Error("pull request upsert failed", "org", orgID, "repo", repoFullName, "number", record.Number, "err", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record pull request"})
				return
			}
			slog.Info("pull request recorded", "org", orgID, "repo", repoFullName, "number", record.Number, "action", e.GetAction(), "state", record.State)
		default:
			slog.Debug("ignoring webhook event", "type", github.WebHookType(c.Request))
		}

		c.Status(http.StatusOK)
	}
}
