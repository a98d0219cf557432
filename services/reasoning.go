package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"insight-engine/llm"
	"insight-engine/models"
)

const reasoningSystemInstruction = "You are a project delivery analyst. You receive a JSON payload describing a computed %s insight. " +
	"Explain it in 2-3 concise, plain-language sentences for an engineering manager. Do not use markdown, lists or headings."

// ReasoningGenerator explains a prediction payload in prose. It never fails:
// when the model cannot be used it falls back to a fixed template per type.
type ReasoningGenerator struct {
	chat    llm.ChatService
	timeout time.Duration
}

func NewReasoningGenerator(chat llm.ChatService, timeout time.Duration) *ReasoningGenerator {
	if chat == nil {
		chat = llm.Disabled{}
	}
	return &ReasoningGenerator{chat: chat, timeout: timeout}
}

// Generate returns the reasoning text and its source (model or template).
func (g *ReasoningGenerator) Generate(ctx context.Context, insightType string, payload any) (string, string) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("reasoning payload encode failed", "type", insightType, "err", err)
		return templateReasoning(insightType, payload), models.ReasoningSourceTemplate
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.chat.Complete(ctx, llm.Request{
		SystemInstruction: fmt.Sprintf(reasoningSystemInstruction, insightType),
		UserMessage:       string(body),
		MaxTokens:         200,
		Temperature:       0.7,
	})
	if err != nil {
		if !llm.IsUnavailable(err) {
			slog.Warn("reasoning generation failed, using template", "type", insightType, "err", err)
		}
		return templateReasoning(insightType, payload), models.ReasoningSourceTemplate
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return templateReasoning(insightType, payload), models.ReasoningSourceTemplate
	}
	return text, models.ReasoningSourceModel
}

func templateReasoning(insightType string, payload any) string {
	switch v := payload.(type) {
	case models.DeadlineRiskValue:
		return deadlineRiskTemplate(v)
	case models.BurnoutValue:
		return burnoutTemplate(v)
	case models.VelocityForecastValue:
		return velocityTemplate(v)
	case models.ScopeCreepValue:
		return scopeCreepTemplate(v)
	}
	return fmt.Sprintf("A %s insight was generated from current project data.", insightType)
}

func deadlineRiskTemplate(v models.DeadlineRiskValue) string {
	return fmt.Sprintf("Based on current velocity of %.1f tasks/day vs required %.1f tasks/day, there is a %d%% probability of delay. %d of %d tasks remain with %d days until the target date.",
		v.HistoricalVelocity, v.RequiredVelocity, v.Probability, v.RemainingTasks, v.TotalTasks, v.DaysUntilDeadline)
}

func burnoutTemplate(v models.BurnoutValue) string {
	return fmt.Sprintf("%s has %d active tasks, weekend activity on %d days and late working hours on %d days in the last two weeks, indicating %s burnout risk.",
		v.UserName, v.ActiveTasks, v.WeekendDays, v.LateNightDays, v.RiskLevel)
}

func velocityTemplate(v models.VelocityForecastValue) string {
	return fmt.Sprintf("Team velocity is %s at about %.1f tasks per week, with an expected range of %.1f to %.1f tasks next week.",
		v.Trend, v.PredictedVelocity, v.ConfidenceInterval[0], v.ConfidenceInterval[1])
}

func scopeCreepTemplate(v models.ScopeCreepValue) string {
	return fmt.Sprintf("Project scope has grown by %.0f%% since the start date (%d to %d tasks), which is %s scope creep.",
		v.PercentageIncrease, v.TasksAtStart, v.CurrentTasks, v.Severity)
}
