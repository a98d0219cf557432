// Package datastore is the read/write gateway over projects, tasks, pull requests,
// bottlenecks, predictions and behavioral metrics. Every operation is scoped by organization.
package datastore

import (
	"context"
	"errors"
	"time"

	"insight-engine/models"
)

var ErrNotFound = errors.New("record not found")

type ProjectFilter struct {
	Status string
}

type TaskFilter struct {
	ProjectID       *string
	Assignee        string
	Statuses        []string
	ExcludeStatuses []string
	CompletedSince  *time.Time // done tasks whose completion time is at or after this instant
	CreatedBefore   *time.Time // inclusive
}

type PredictionFilter struct {
	ProjectID  *string
	Type       string
	ActiveOnly bool
}

type PullRequestFilter struct {
	ProjectID *string
	Repo      string // owner/name
	State     string
}

type Gateway interface {
	FindProjectByID(ctx context.Context, orgID, projectID string) (*models.Project, error)
	ListProjects(ctx context.Context, orgID string, filter ProjectFilter) ([]models.Project, error)
	ListTasks(ctx context.Context, orgID string, filter TaskFilter) ([]models.Task, error)
	ListActiveBottlenecks(ctx context.Context, orgID, projectID string) ([]models.Bottleneck, error)
	ListOrganizationBottlenecks(ctx context.Context, orgID, status string) ([]models.Bottleneck, error)
	ListBehavioralMetrics(ctx context.Context, orgID, userID string, since time.Time) ([]models.BehavioralMetric, error)
	ListMembers(ctx context.Context, orgID string) ([]models.Member, error)
	ListPredictions(ctx context.Context, orgID string, filter PredictionFilter) ([]models.Prediction, error)
	ListPullRequests(ctx context.Context, orgID string, filter PullRequestFilter) ([]models.PullRequest, error)

	CreateProject(ctx context.Context, project *models.Project) error
	CreateTask(ctx context.Context, task *models.Task) error
	CreateBottleneck(ctx context.Context, bottleneck *models.Bottleneck) error
	CreatePrediction(ctx context.Context, prediction *models.Prediction) error
	DeactivatePredictions(ctx context.Context, orgID, predictionType, scopeKey string) (int64, error)
	// ReplaceActivePrediction deactivates every active prediction sharing the
	// prediction's (type, scope) and inserts it, in one transaction.
	ReplaceActivePrediction(ctx context.Context, prediction *models.Prediction) error
	DeactivateExpiredPredictions(ctx context.Context, orgID string, now time.Time) (int64, error)
	UpsertPullRequest(ctx context.Context, pr *models.PullRequest) error
}
