package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"insight-engine/datastore"
	"insight-engine/llm"
	"insight-engine/models"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := datastore.Open(":memory:")
	if err != nil {
		t.Fatalf("fail to open test db: %v", err)
	}
	return db
}

// fakeChat returns a canned response and records every request.
type fakeChat struct {
	mu       sync.Mutex
	text     string
	err      error
	block    bool
	requests []llm.Request
}

func (f *fakeChat) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return llm.Response{}, ctx.Err()
	}
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func newTestPredictionService(store datastore.Gateway, opts PredictionOptions) *PredictionService {
	return NewPredictionService(store, llm.Disabled{}, opts).WithClock(func() time.Time { return testNow })
}

func createProject(t *testing.T, gw datastore.Gateway, p models.Project) *models.Project {
	t.Helper()
	if p.OrganizationID == "" {
		p.OrganizationID = "org-1"
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusActive
	}
	require.NoError(t, gw.CreateProject(context.Background(), &p))
	return &p
}

func createTasks(t *testing.T, gw datastore.Gateway, n int, tmpl models.Task) {
	t.Helper()
	for i := 0; i < n; i++ {
		task := tmpl
		if task.OrganizationID == "" {
			task.OrganizationID = "org-1"
		}
		if task.Title == "" {
			task.Title = "task"
		}
		require.NoError(t, gw.CreateTask(context.Background(), &task))
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// failingMembersStore fails member reads so that only the burnout predictor errors.
type failingMembersStore struct {
	datastore.Gateway
}

func (failingMembersStore) ListMembers(context.Context, string) ([]models.Member, error) {
	return nil, errors.New("members table unavailable")
}

func TestRunAllPredictions_PartialFailure(t *testing.T) {
	gw := datastore.NewGormGateway(setupTestDB(t))
	project := createProject(t, gw, models.Project{Name: "API", Key: "API", TargetDate: timePtr(testNow.AddDate(0, 0, 10))})
	createTasks(t, gw, 3, models.Task{ProjectID: &project.ID, Status: models.TaskStatusTodo})
	createTasks(t, gw, 2, models.Task{ProjectID: &project.ID, Status: models.TaskStatusDone, CompletedAt: timePtr(testNow.AddDate(0, 0, -2))})

	svc := newTestPredictionService(failingMembersStore{gw}, PredictionOptions{})
	report, err := svc.RunAllPredictions(context.Background(), "org-1", nil)
	require.NoError(t, err)

	outcomes := map[string]string{}
	for _, r := range report.Results {
		outcomes[r.Predictor] = r.Outcome
	}
	assert.Equal(t, OutcomeFailed, outcomes[models.PredictionBurnoutIndicator])
	assert.Equal(t, OutcomeWritten, outcomes[models.PredictionDeadlineRisk])
	assert.Equal(t, OutcomeWritten, outcomes[models.PredictionVelocityForecast])
	assert.Equal(t, OutcomeSkipped, outcomes[models.PredictionScopeCreep])

	active, err := gw.ListPredictions(context.Background(), "org-1", datastore.PredictionFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestRunAllPredictions_ResultsSorted(t *testing.T) {
	gw := datastore.NewGormGateway(setupTestDB(t))
	createProject(t, gw, models.Project{Name: "B", Key: "B"})
	createProject(t, gw, models.Project{Name: "A", Key: "A"})

	report, err := newTestPredictionService(gw, PredictionOptions{}).RunAllPredictions(context.Background(), "org-1", nil)
	require.NoError(t, err)

	// two projects for deadline risk and scope creep, one burnout and one velocity entry
	require.Len(t, report.Results, 6)
	for i := 1; i < len(report.Results); i++ {
		prev, cur := report.Results[i-1], report.Results[i]
		assert.True(t, prev.Predictor < cur.Predictor || (prev.Predictor == cur.Predictor && prev.ProjectID <= cur.ProjectID))
	}
}

func TestRunAllPredictions_ExpiresBeforeRunning(t *testing.T) {
	gw := datastore.NewGormGateway(setupTestDB(t))
	stale := &models.Prediction{
		OrganizationID: "org-1",
		Type:           models.PredictionVelocityForecast,
		ScopeKey:       models.OrganizationScope("org-1"),
		IsActive:       true,
		ValidUntil:     timePtr(testNow.Add(-time.Hour)),
	}
	require.NoError(t, gw.CreatePrediction(context.Background(), stale))

	report, err := newTestPredictionService(gw, PredictionOptions{}).RunAllPredictions(context.Background(), "org-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Expired)
}

func TestNewPrediction_TTL(t *testing.T) {
	gw := datastore.NewGormGateway(setupTestDB(t))
	svc := newTestPredictionService(gw, PredictionOptions{TTL: 24 * time.Hour})

	p, err := svc.newPrediction(context.Background(), "org-1", nil, models.PredictionScopeCreep, "project:x", 0.8, models.ScopeCreepValue{Severity: "minor"})
	require.NoError(t, err)
	require.NotNil(t, p.ValidUntil)
	assert.Equal(t, testNow.Add(24*time.Hour), *p.ValidUntil)
	assert.Equal(t, models.ReasoningSourceTemplate, p.ReasoningSource)
	assert.True(t, p.IsActive)

	svc = newTestPredictionService(gw, PredictionOptions{})
	p, err = svc.newPrediction(context.Background(), "org-1", nil, models.PredictionScopeCreep, "project:x", 0.8, models.ScopeCreepValue{})
	require.NoError(t, err)
	assert.Nil(t, p.ValidUntil)
}

func TestSupersessionWriter_KeepsOneActive(t *testing.T) {
	gw := datastore.NewGormGateway(setupTestDB(t))
	writer := NewSupersessionWriter(gw)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := &models.Prediction{OrganizationID: "org-1", Type: models.PredictionScopeCreep, ScopeKey: "project:p1", Confidence: 0.8}
		require.NoError(t, writer.Write(ctx, p))
	}
	other := &models.Prediction{OrganizationID: "org-1", Type: models.PredictionScopeCreep, ScopeKey: "project:p2", Confidence: 0.8}
	require.NoError(t, writer.Write(ctx, other))

	all, err := gw.ListPredictions(ctx, "org-1", datastore.PredictionFilter{Type: models.PredictionScopeCreep})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := gw.ListPredictions(ctx, "org-1", datastore.PredictionFilter{Type: models.PredictionScopeCreep, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestExpirePredictions(t *testing.T) {
	gw := datastore.NewGormGateway(setupTestDB(t))
	ctx := context.Background()

	expired := &models.Prediction{OrganizationID: "org-1", Type: models.PredictionScopeCreep, ScopeKey: "project:a", IsActive: true, ValidUntil: timePtr(testNow.Add(-time.Minute))}
	fresh := &models.Prediction{OrganizationID: "org-1", Type: models.PredictionScopeCreep, ScopeKey: "project:b", IsActive: true, ValidUntil: timePtr(testNow.Add(time.Hour))}
	open := &models.Prediction{OrganizationID: "org-1", Type: models.PredictionScopeCreep, ScopeKey: "project:c", IsActive: true}
	otherOrg := &models.Prediction{OrganizationID: "org-2", Type: models.PredictionScopeCreep, ScopeKey: "project:d", IsActive: true, ValidUntil: timePtr(testNow.Add(-time.Minute))}
	for _, p := range []*models.Prediction{expired, fresh, open, otherOrg} {
		require.NoError(t, gw.CreatePrediction(ctx, p))
	}

	n, err := ExpirePredictions(ctx, gw, "org-1", testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := gw.ListPredictions(ctx, "org-1", datastore.PredictionFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	active, err = gw.ListPredictions(ctx, "org-2", datastore.PredictionFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
