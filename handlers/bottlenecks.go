package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-engine/datastore"
	"insight-engine/models"
)

// HandleListBottlenecks lists bottlenecks by status; "all" disables the filter.
func HandleListBottlenecks(store datastore.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("orgId")

		status := c.DefaultQuery("status", models.BottleneckStatusActive)
		switch status {
		case models.BottleneckStatusActive, models.BottleneckStatusResolved:
		case "all":
			status = ""
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active, resolved or all"})
			return
		}

		bottlenecks, err := store.ListOrganizationBottlenecks(c.Request.Context(), orgID, status)
		if err != nil {
			slog.Error("bottleneck list failed", "org", orgID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bottlenecks"})
			return
		}

		items := make([]gin.H, 0, len(bottlenecks))
		for _, b := range bottlenecks {
			items = append(items, gin.H{
				"id":          b.ID,
				"projectId":   b.ProjectID,
				"type":        b.Type,
				"severity":    b.Severity,
				"status":      b.Status,
				"title":       b.Title,
				"description": b.Description,
				"impact":      b.Impact,
				"repository":  b.Repository,
				"createdAt":   b.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"bottlenecks": items})
	}
}
