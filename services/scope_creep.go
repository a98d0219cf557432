package services

import (
	"context"
	"log/slog"
	"time"

	"insight-engine/datastore"
	"insight-engine/models"
)

const (
	scopeCreepSevere   = "severe"
	scopeCreepModerate = "moderate"
	scopeCreepMinor    = "minor"
)

// scopeCreepSeverity returns "" when the increase is not considered scope creep.
func scopeCreepSeverity(percentageIncrease float64) string {
	switch {
	case percentageIncrease >= 50:
		return scopeCreepSevere
	case percentageIncrease > 25:
		return scopeCreepModerate
	case percentageIncrease > 10:
		return scopeCreepMinor
	default:
		return ""
	}
}

// DetectScopeCreep compares the current task count with the count on the start date.
func (s *PredictionService) DetectScopeCreep(ctx context.Context, orgID, projectID string) (*models.Prediction, error) {
	project, err := s.store.FindProjectByID(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if project.StartDate == nil {
		slog.Debug("scope creep skipped: no start date", "org", orgID, "project", projectID)
		return nil, nil
	}

	tasks, err := s.store.ListTasks(ctx, orgID, datastore.TaskFilter{ProjectID: &project.ID})
	if err != nil {
		return nil, err
	}
	tasksAtStart := 0
	for _, t := range tasks {
		if !t.CreatedAt.After(*project.StartDate) {
			tasksAtStart++
		}
	}
	if tasksAtStart == 0 {
		slog.Debug("scope creep skipped: no baseline tasks", "org", orgID, "project", projectID)
		return nil, nil
	}

	current := len(tasks)
	increase := float64(current-tasksAtStart) / float64(tasksAtStart) * 100
	severity := scopeCreepSeverity(increase)
	if severity == "" {
		return nil, nil
	}

	value := models.ScopeCreepValue{
		Detected:           true,
		Severity:           severity,
		PercentageIncrease: round2(increase),
		TasksAtStart:       tasksAtStart,
		CurrentTasks:       current,
		AddedTasks:         current - tasksAtStart,
		StartDate:          project.StartDate.Format(time.DateOnly),
	}
	prediction, err := s.newPrediction(ctx, orgID, &project.ID, models.PredictionScopeCreep, models.ProjectScope(project.ID), 0.8, value)
	if err != nil {
		return nil, err
	}
	if err := s.writer.Write(ctx, prediction); err != nil {
		return nil, err
	}
	slog.Info("scope creep detected", "org", orgID, "project", project.ID, "severity", severity, "increase", value.PercentageIncrease)
	return prediction, nil
}
