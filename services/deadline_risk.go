package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"insight-engine/datastore"
	"insight-engine/models"
)

const (
	riskLow      = "low"
	riskMedium   = "medium"
	riskHigh     = "high"
	riskCritical = "critical"
)

const (
	velocityWindowDays  = 30
	stalePullRequestAge = 3 * 24 * time.Hour
)

type deadlineInputs struct {
	Now                 time.Time
	TargetDate          time.Time
	TotalTasks          int
	CompletedTasks      int
	CompletedLast30Days int
	CriticalBottlenecks int
	StalePullRequests   int
}

// computeDeadlineRisk is the pure scoring step of the deadline risk predictor.
func computeDeadlineRisk(in deadlineInputs) (models.DeadlineRiskValue, float64) {
	completionRate := 0.0
	if in.TotalTasks > 0 {
		completionRate = float64(in.CompletedTasks) / float64(in.TotalTasks)
	}
	daysUntil := int(math.Ceil(in.TargetDate.Sub(in.Now).Hours() / 24))
	remaining := in.TotalTasks - in.CompletedTasks
	required := float64(remaining) / float64(max(daysUntil, 1))
	historical := float64(in.CompletedLast30Days) / velocityWindowDays

	// with zero historical velocity any positive requirement lands on critical
	level, confidence := riskLow, 0.1
	switch {
	case required > 2*historical:
		level, confidence = riskCritical, 0.9
	case required > 1.5*historical:
		level, confidence = riskHigh, 0.7
	case required > historical:
		level, confidence = riskMedium, 0.4
	}
	confidence = round2(math.Min(1.0, confidence+0.1*float64(in.CriticalBottlenecks)))

	value := models.DeadlineRiskValue{
		RiskLevel:          level,
		Probability:        int(math.Round(confidence * 100)),
		TargetDate:         in.TargetDate.Format(time.DateOnly),
		CompletionRate:     round2(completionRate),
		TotalTasks:         in.TotalTasks,
		CompletedTasks:     in.CompletedTasks,
		RemainingTasks:     remaining,
		DaysUntilDeadline:  daysUntil,
		RequiredVelocity:   round2(required),
		HistoricalVelocity: round2(historical),
		CriticalBlockers:   in.CriticalBottlenecks,
		Factors:            []string{},
		Recommendations:    []string{},
	}

	if level != riskLow && historical > 0 {
		delay := int(math.Ceil(float64(remaining)/historical - float64(daysUntil)))
		value.EstimatedDelay = &delay
	}

	if required > historical {
		value.Factors = append(value.Factors, fmt.Sprintf("Required velocity of %.1f tasks/day exceeds historical velocity of %.1f tasks/day", required, historical))
		value.Recommendations = append(value.Recommendations, "Reduce scope or add capacity to close the velocity gap")
	}
	if historical == 0 && remaining > 0 {
		value.Factors = append(value.Factors, "No tasks were completed in the last 30 days")
	}
	if in.CriticalBottlenecks > 0 {
		value.Factors = append(value.Factors, fmt.Sprintf("%d critical bottleneck(s) are active", in.CriticalBottlenecks))
		value.Recommendations = append(value.Recommendations, "Resolve critical bottlenecks before starting new work")
	}
	if completionRate < 0.5 && daysUntil <= 14 {
		value.Factors = append(value.Factors, fmt.Sprintf("Only %.0f%% of tasks are complete with %d days remaining", completionRate*100, daysUntil))
		value.Recommendations = append(value.Recommendations, "Re-plan the remaining work against the target date")
	}
	if in.StalePullRequests > 0 {
		value.Factors = append(value.Factors, fmt.Sprintf("%d pull request(s) have waited more than 3 days", in.StalePullRequests))
		value.Recommendations = append(value.Recommendations, "Prioritize reviewing open pull requests")
	}

	return value, confidence
}

// PredictDeadlineRisk writes a deadline-risk prediction for the project.
// Projects without a target date are skipped and (nil, nil) is returned.
func (s *PredictionService) PredictDeadlineRisk(ctx context.Context, orgID, projectID string) (*models.Prediction, error) {
	project, err := s.store.FindProjectByID(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project.TargetDate == nil {
		slog.Debug("deadline risk skipped: no target date", "org", orgID, "project", projectID)
		return nil, nil
	}

	now := s.now()
	tasks, err := s.store.ListTasks(ctx, orgID, datastore.TaskFilter{ProjectID: &project.ID})
	if err != nil {
		return nil, err
	}
	in := deadlineInputs{Now: now, TargetDate: *project.TargetDate, TotalTasks: len(tasks)}
	windowStart := now.AddDate(0, 0, -velocityWindowDays)
	for _, t := range tasks {
		completedAt, done := t.CompletionTime()
		if !done {
			continue
		}
		in.CompletedTasks++
		if !completedAt.Before(windowStart) {
			in.CompletedLast30Days++
		}
	}

	bottlenecks, err := s.store.ListActiveBottlenecks(ctx, orgID, project.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range bottlenecks {
		if b.Severity == models.SeverityCritical {
			in.CriticalBottlenecks++
		}
	}

	prs, err := s.store.ListPullRequests(ctx, orgID, datastore.PullRequestFilter{ProjectID: &project.ID, State: models.PullRequestStateOpen})
	if err != nil {
		return nil, err
	}
	for _, pr := range prs {
		if !pr.Draft && now.Sub(pr.OpenedAt) > stalePullRequestAge {
			in.StalePullRequests++
		}
	}

	value, confidence := computeDeadlineRisk(in)
	prediction, err := s.newPrediction(ctx, orgID, &project.ID, models.PredictionDeadlineRisk, models.ProjectScope(project.ID), confidence, value)
	if err != nil {
		return nil, err
	}
	if err := s.writer.Write(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to write deadline risk for project %s: %w", project.ID, err)
	}
	slog.Info("deadline risk predicted", "org", orgID, "project", project.ID, "risk", value.RiskLevel, "confidence", confidence)
	return prediction, nil
}
