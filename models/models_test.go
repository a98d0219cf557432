package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("fail to open test db: %v", err)
	}

	if err := db.AutoMigrate(All()...); err != nil {
		t.Fatalf("fail to migrate test db: %v", err)
	}

	return db
}

func TestPrediction_ValueRoundTripThroughDB(t *testing.T) {
	db := setupModelsTestDB(t)

	delay := 20
	p := Prediction{
		ID:             "pred-1",
		OrganizationID: "org-1",
		Type:           PredictionDeadlineRisk,
		ScopeKey:       ProjectScope("proj-1"),
		Confidence:     0.9,
		IsActive:       true,
	}
	require.NoError(t, p.SetValue(DeadlineRiskValue{RiskLevel: "critical", EstimatedDelay: &delay}))
	require.NoError(t, db.Create(&p).Error)

	var saved Prediction
	require.NoError(t, db.First(&saved, "id = ?", "pred-1").Error)

	var v DeadlineRiskValue
	require.NoError(t, saved.DecodeValue(&v))
	assert.Equal(t, "critical", v.RiskLevel)
	require.NotNil(t, v.EstimatedDelay)
	assert.Equal(t, 20, *v.EstimatedDelay)
	assert.Equal(t, "project:proj-1", saved.ScopeKey)
}

func TestPrediction_DecodeEmptyValue(t *testing.T) {
	var v BurnoutValue
	assert.Error(t, Prediction{ID: "x"}.DecodeValue(&v))
}

func TestTask_CompletionTime(t *testing.T) {
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)

	_, ok := Task{Status: TaskStatusInProgress, UpdatedAt: updated}.CompletionTime()
	assert.False(t, ok)

	at, ok := Task{Status: TaskStatusDone, UpdatedAt: updated}.CompletionTime()
	assert.True(t, ok)
	assert.Equal(t, updated, at)

	at, ok = Task{Status: TaskStatusDone, UpdatedAt: updated, CompletedAt: &completed}.CompletionTime()
	assert.True(t, ok)
	assert.Equal(t, completed, at)
}

func TestTask_Labels(t *testing.T) {
	task := Task{Labels: JoinLabels("testing", " ", AutoGeneratedLabel)}
	assert.Equal(t, "testing,auto-generated", task.Labels)
	assert.Equal(t, []string{"testing", "auto-generated"}, task.LabelList())
	assert.Equal(t, []string{}, Task{}.LabelList())
}

func TestProjectContext_IsEmpty(t *testing.T) {
	var nilCtx *ProjectContext
	assert.True(t, nilCtx.IsEmpty())
	assert.True(t, (&ProjectContext{}).IsEmpty())
	assert.False(t, (&ProjectContext{Goals: []string{"ship v1"}}).IsEmpty())
}
