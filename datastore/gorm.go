package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"insight-engine/models"
)

type GormGateway struct {
	db *gorm.DB
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

// Open opens the sqlite database at path and migrates every model.
func Open(path string) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (g *GormGateway) FindProjectByID(ctx context.Context, orgID, projectID string) (*models.Project, error) {
	var project models.Project
	err := g.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, projectID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (g *GormGateway) ListProjects(ctx context.Context, orgID string, filter ProjectFilter) ([]models.Project, error) {
	var projects []models.Project
	q := g.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (g *GormGateway) ListTasks(ctx context.Context, orgID string, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	q := g.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Assignee != "" {
		q = q.Where("assignee = ?", filter.Assignee)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if len(filter.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", filter.ExcludeStatuses)
	}
	if filter.CompletedSince != nil {
		q = q.Where("status = ? AND COALESCE(completed_at, updated_at) >= ?", models.TaskStatusDone, filter.CompletedSince.UTC())
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at <= ?", filter.CreatedBefore.UTC())
	}
	if err := q.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (g *GormGateway) ListActiveBottlenecks(ctx context.Context, orgID, projectID string) ([]models.Bottleneck, error) {
	var bottlenecks []models.Bottleneck
	err := g.db.WithContext(ctx).
		Where("organization_id = ? AND project_id = ? AND status = ?", orgID, projectID, models.BottleneckStatusActive).
		Find(&bottlenecks).Error
	if err != nil {
		return nil, err
	}
	return bottlenecks, nil
}

func (g *GormGateway) ListOrganizationBottlenecks(ctx context.Context, orgID, status string) ([]models.Bottleneck, error) {
	var bottlenecks []models.Bottleneck
	q := g.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&bottlenecks).Error; err != nil {
		return nil, err
	}
	return bottlenecks, nil
}

func (g *GormGateway) ListBehavioralMetrics(ctx context.Context, orgID, userID string, since time.Time) ([]models.BehavioralMetric, error) {
	var metrics []models.BehavioralMetric
	err := g.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND date >= ?", orgID, userID, since.UTC()).
		Order("date ASC").
		Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (g *GormGateway) ListMembers(ctx context.Context, orgID string) ([]models.Member, error) {
	var members []models.Member
	if err := g.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("user_id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (g *GormGateway) ListPredictions(ctx context.Context, orgID string, filter PredictionFilter) ([]models.Prediction, error) {
	var predictions []models.Prediction
	q := g.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("created_at DESC").Find(&predictions).Error; err != nil {
		return nil, err
	}
	return predictions, nil
}

func (g *GormGateway) ListPullRequests(ctx context.Context, orgID string, filter PullRequestFilter) ([]models.PullRequest, error) {
	var prs []models.PullRequest
	q := g.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Repo != "" {
		q = q.Where("repo = ?", filter.Repo)
	}
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	if err := q.Order("opened_at ASC").Find(&prs).Error; err != nil {
		return nil, err
	}
	return prs, nil
}

func (g *GormGateway) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Create(project).Error
}

func (g *GormGateway) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Create(task).Error
}

func (g *GormGateway) CreateBottleneck(ctx context.Context, bottleneck *models.Bottleneck) error {
	if bottleneck.ID == "" {
		bottleneck.ID = uuid.NewString()
	}
	if bottleneck.Status == "" {
		bottleneck.Status = models.BottleneckStatusActive
	}
	return g.db.WithContext(ctx).Create(bottleneck).Error
}

func (g *GormGateway) CreatePrediction(ctx context.Context, prediction *models.Prediction) error {
	if prediction.ID == "" {
		prediction.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Create(prediction).Error
}

func (g *GormGateway) DeactivatePredictions(ctx context.Context, orgID, predictionType, scopeKey string) (int64, error) {
	return deactivate(g.db.WithContext(ctx), orgID, predictionType, scopeKey)
}

func (g *GormGateway) ReplaceActivePrediction(ctx context.Context, prediction *models.Prediction) error {
	if prediction.ID == "" {
		prediction.ID = uuid.NewString()
	}
	prediction.IsActive = true
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := deactivate(tx, prediction.OrganizationID, prediction.Type, prediction.ScopeKey); err != nil {
			return err
		}
		return tx.Create(prediction).Error
	})
}

func deactivate(db *gorm.DB, orgID, predictionType, scopeKey string) (int64, error) {
	result := db.Model(&models.Prediction{}).
		Where("organization_id = ? AND type = ? AND scope_key = ? AND is_active = ?", orgID, predictionType, scopeKey, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate %s predictions for %s: %w", predictionType, scopeKey, result.Error)
	}
	return result.RowsAffected, nil
}

func (g *GormGateway) DeactivateExpiredPredictions(ctx context.Context, orgID string, now time.Time) (int64, error) {
	result := g.db.WithContext(ctx).Model(&models.Prediction{}).
		Where("organization_id = ? AND is_active = ? AND valid_until IS NOT NULL AND valid_until < ?", orgID, true, now.UTC()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpsertPullRequest inserts the pull request or refreshes the row with the same repo and number.
func (g *GormGateway) UpsertPullRequest(ctx context.Context, pr *models.PullRequest) error {
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "repo"}, {Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "url", "author", "author_name", "state", "draft", "merged_at", "closed_at", "updated_at",
		}),
	}).Create(pr).Error
}
