package services

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"insight-engine/datastore"
	"insight-engine/llm"
	"insight-engine/models"
)

const (
	OutcomeWritten = "written"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type PredictionOptions struct {
	// TTL sets ValidUntil on predictions; zero leaves it empty.
	TTL time.Duration
	// BurnoutSupersede replaces a user's previous active burnout prediction instead of appending.
	BurnoutSupersede bool
	ReasoningTimeout time.Duration
}

type PredictionService struct {
	store    datastore.Gateway
	reasoner *ReasoningGenerator
	writer   *SupersessionWriter
	opts     PredictionOptions
	now      func() time.Time
}

func NewPredictionService(store datastore.Gateway, chat llm.ChatService, opts PredictionOptions) *PredictionService {
	return &PredictionService{
		store:    store,
		reasoner: NewReasoningGenerator(chat, opts.ReasoningTimeout),
		writer:   NewSupersessionWriter(store),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service clock. Used by tests and backfills.
func (s *PredictionService) WithClock(now func() time.Time) *PredictionService {
	s.now = now
	return s
}

type PredictorResult struct {
	Predictor       string `json:"predictor"`
	ProjectID       string `json:"projectId,omitempty"`
	Outcome         string `json:"outcome"`
	PredictionID    string `json:"predictionId,omitempty"`
	ReasoningSource string `json:"reasoningSource,omitempty"`
	Error           string `json:"error,omitempty"`
}

type RunReport struct {
	OrganizationID string            `json:"organizationId"`
	Expired        int64             `json:"expired"`
	Results        []PredictorResult `json:"results"`
}

// RunAllPredictions runs the four predictors concurrently and returns once all
// of them have settled. A failing predictor does not undo the others.
// Without a project, deadline risk and scope creep run for every active project.
func (s *PredictionService) RunAllPredictions(ctx context.Context, orgID string, projectID *string) (*RunReport, error) {
	report := &RunReport{OrganizationID: orgID, Results: []PredictorResult{}}

	expired, err := ExpirePredictions(ctx, s.store, orgID, s.now())
	if err != nil {
		slog.Warn("prediction expiry failed", "org", orgID, "err", err)
	}
	report.Expired = expired

	var projectIDs []string
	if projectID != nil {
		projectIDs = []string{*projectID}
	} else {
		projects, err := s.store.ListProjects(ctx, orgID, datastore.ProjectFilter{Status: models.ProjectStatusActive})
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(results ...PredictorResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Results = append(report.Results, results...)
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		for _, id := range projectIDs {
			p, err := s.PredictDeadlineRisk(ctx, orgID, id)
			record(resultFor(models.PredictionDeadlineRisk, id, p, err))
		}
	}()
	go func() {
		defer wg.Done()
		predictions, err := s.DetectBurnout(ctx, orgID)
		for i := range predictions {
			record(resultFor(models.PredictionBurnoutIndicator, "", &predictions[i], nil))
		}
		if err != nil || len(predictions) == 0 {
			record(resultFor(models.PredictionBurnoutIndicator, "", nil, err))
		}
	}()
	go func() {
		defer wg.Done()
		p, err := s.ForecastVelocity(ctx, orgID, projectID)
		scope := ""
		if projectID != nil {
			scope = *projectID
		}
		record(resultFor(models.PredictionVelocityForecast, scope, p, err))
	}()
	go func() {
		defer wg.Done()
		for _, id := range projectIDs {
			p, err := s.DetectScopeCreep(ctx, orgID, id)
			record(resultFor(models.PredictionScopeCreep, id, p, err))
		}
	}()
	wg.Wait()

	sort.SliceStable(report.Results, func(i, j int) bool {
		if report.Results[i].Predictor != report.Results[j].Predictor {
			return report.Results[i].Predictor < report.Results[j].Predictor
		}
		return report.Results[i].ProjectID < report.Results[j].ProjectID
	})
	return report, nil
}

func resultFor(predictor, projectID string, p *models.Prediction, err error) PredictorResult {
	result := PredictorResult{Predictor: predictor, ProjectID: projectID}
	switch {
	case err != nil:
		slog.Error("predictor failed", "type", predictor, "project", projectID, "err", err)
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
	case p == nil:
		result.Outcome = OutcomeSkipped
	default:
		result.Outcome = OutcomeWritten
		result.PredictionID = p.ID
		result.ReasoningSource = p.ReasoningSource
	}
	return result
}

// newPrediction fills value, reasoning and validity for a predictor result.
func (s *PredictionService) newPrediction(ctx context.Context, orgID string, projectID *string, predictionType, scopeKey string, confidence float64, value any) (*models.Prediction, error) {
	p := &models.Prediction{
		OrganizationID: orgID,
		ProjectID:      projectID,
		Type:           predictionType,
		ScopeKey:       scopeKey,
		Confidence:     confidence,
		IsActive:       true,
	}
	if err := p.SetValue(value); err != nil {
		return nil, err
	}
	p.Reasoning, p.ReasoningSource = s.reasoner.Generate(ctx, predictionType, value)
	if s.opts.TTL > 0 {
		until := s.now().Add(s.opts.TTL)
		p.ValidUntil = &until
	}
	return p, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
