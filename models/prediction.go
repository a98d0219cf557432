package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	PredictionDeadlineRisk     = "deadline-risk"
	PredictionBurnoutIndicator = "burnout-indicator"
	PredictionVelocityForecast = "velocity-forecast"
	PredictionScopeCreep       = "scope-creep"
)

// Reasoning sources. "template" means the language model was not used.
const (
	ReasoningSourceModel    = "model"
	ReasoningSourceTemplate = "template"
)

// Prediction is a typed, confidence-scored insight. For a given (Type, ScopeKey)
// at most one row is active, except burnout rows when supersession is disabled.
type Prediction struct {
	ID              string  `gorm:"primaryKey"`
	OrganizationID  string  `gorm:"index:idx_prediction_scope"`
	ProjectID       *string `gorm:"index"`
	Type            string  `gorm:"index:idx_prediction_scope"`
	ScopeKey        string  `gorm:"index:idx_prediction_scope"`
	Confidence      float64
	Value           string `gorm:"type:text"` // JSON payload, see *Value types
	Reasoning       string `gorm:"type:text"`
	ReasoningSource string
	IsActive        bool `gorm:"index"`
	ValidUntil      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (p *Prediction) SetValue(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode prediction value: %w", err)
	}
	p.Value = string(data)
	return nil
}

func (p Prediction) DecodeValue(dst any) error {
	if p.Value == "" {
		return fmt.Errorf("prediction %s has no value", p.ID)
	}
	return json.Unmarshal([]byte(p.Value), dst)
}

func ProjectScope(projectID string) string { return "project:" + projectID }

func OrganizationScope(orgID string) string { return "org:" + orgID }

func UserScope(userID string) string { return "user:" + userID }

func AnalysisScope(id string) string { return "analysis:" + id }

type DeadlineRiskValue struct {
	RiskLevel          string   `json:"riskLevel"`
	Probability        int      `json:"probability"` // percent, equals confidence
	TargetDate         string   `json:"targetDate"`
	CompletionRate     float64  `json:"completionRate"`
	TotalTasks         int      `json:"totalTasks"`
	CompletedTasks     int      `json:"completedTasks"`
	RemainingTasks     int      `json:"remainingTasks"`
	DaysUntilDeadline  int      `json:"daysUntilDeadline"`
	RequiredVelocity   float64  `json:"requiredVelocity"`
	HistoricalVelocity float64  `json:"historicalVelocity"`
	CriticalBlockers   int      `json:"criticalBottlenecks"`
	EstimatedDelay     *int     `json:"estimatedDelay,omitempty"` // days; omitted when velocity is zero
	Factors            []string `json:"factors"`
	Recommendations    []string `json:"recommendations"`
}

type BurnoutValue struct {
	UserID          string   `json:"userId"`
	UserName        string   `json:"userName"`
	RiskLevel       string   `json:"riskLevel"`
	Score           int      `json:"score"`
	ActiveTasks     int      `json:"activeTasks"`
	WeekendDays     int      `json:"weekendDays"`
	LateNightDays   int      `json:"lateNightDays"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

type VelocityForecastValue struct {
	PredictedVelocity  float64    `json:"predictedVelocity"` // tasks per week
	ConfidenceInterval [2]float64 `json:"confidenceInterval"`
	Trend              string     `json:"trend"`
	WeeklyCounts       [4]int     `json:"weeklyCounts"` // index 0 is the most recent week
	RecentAverage      float64    `json:"recentAverage"`
	PreviousAverage    float64    `json:"previousAverage"`
	StdDev             float64    `json:"stdDev"`
	SampleSize         int        `json:"sampleSize"`
}

type ScopeCreepValue struct {
	Detected           bool    `json:"detected"`
	Severity           string  `json:"severity"`
	PercentageIncrease float64 `json:"percentageIncrease"`
	TasksAtStart       int     `json:"tasksAtStart"`
	CurrentTasks       int     `json:"currentTasks"`
	AddedTasks         int     `json:"addedTasks"`
	StartDate          string  `json:"startDate"`
}

// AnalyzerPredictionValue is the payload of predictions created by the repository analyzer.
type AnalyzerPredictionValue struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Timeframe   string `json:"timeframe,omitempty"`
	Repository  string `json:"repository,omitempty"`
	Source      string `json:"source"` // "model" or "heuristic"
}
