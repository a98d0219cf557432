package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"insight-engine/datastore"
	"insight-engine/models"
	"insight-engine/services"
)

type runPredictionsRequest struct {
	ProjectID string `json:"projectId"`
}

// HandleRunPredictions runs every predictor for the organization, or for one
// project when projectId is given, and returns the per-predictor report.
func HandleRunPredictions(svc *services.PredictionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("orgId")

		var req runPredictionsRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}
		if req.ProjectID == "" {
			req.ProjectID = c.Query("projectId")
		}

		var projectID *string
		if req.ProjectID != "" {
			projectID = &req.ProjectID
		}

		report, err := svc.RunAllPredictions(c.Request.Context(), orgID, projectID)
		if err != nil {
			slog.Error("prediction run failed", "org", orgID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction run failed"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

type predictionView struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	ProjectID       *string         `json:"projectId,omitempty"`
	ScopeKey        string          `json:"scopeKey"`
	Confidence      float64         `json:"confidence"`
	Value           json.RawMessage `json:"value"`
	Reasoning       string          `json:"reasoning"`
	ReasoningSource string          `json:"reasoningSource"`
	IsActive        bool            `json:"isActive"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func toPredictionView(p models.Prediction) predictionView {
	value := json.RawMessage(p.Value)
	if !json.Valid(value) {
		value = json.RawMessage("null")
	}
	return predictionView{
		ID:              p.ID,
		Type:            p.Type,
		ProjectID:       p.ProjectID,
		ScopeKey:        p.ScopeKey,
		Confidence:      p.Confidence,
		Value:           value,
		Reasoning:       p.Reasoning,
		ReasoningSource: p.ReasoningSource,
		IsActive:        p.IsActive,
		ValidUntil:      p.ValidUntil,
		CreatedAt:       p.CreatedAt,
	}
}

// HandleListPredictions lists predictions, active ones only unless active=false.
func HandleListPredictions(store datastore.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("orgId")

		filter := datastore.PredictionFilter{Type: c.Query("type"), ActiveOnly: true}
		if raw := c.Query("active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "active must be a boolean"})
				return
			}
			filter.ActiveOnly = active
		}
		if projectID := c.Query("projectId"); projectID != "" {
			filter.ProjectID = &projectID
		}

		predictions, err := store.ListPredictions(c.Request.Context(), orgID, filter)
		if err != nil {
			slog.Error("prediction list failed", "org", orgID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list predictions"})
			return
		}

		views := make([]predictionView, 0, len(predictions))
		for _, p := range predictions {
			views = append(views, toPredictionView(p))
		}
		c.JSON(http.StatusOK, gin.H{"predictions": views})
	}
}
