package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"insight-engine/datastore"
	"insight-engine/llm"
	"insight-engine/models"
)

const (
	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

const DefaultAnalysisValidity = 7 * 24 * time.Hour

type AnalyzerOptions struct {
	Similarity SimilarityChecker
	// Validity is how long analyzer predictions stay valid.
	Validity time.Duration
	Timeout  time.Duration
}

// Analyzer turns repository analyses into tasks, bottlenecks, predictions and projects.
type Analyzer struct {
	store      datastore.Gateway
	chat       llm.ChatService
	similarity SimilarityChecker
	validity   time.Duration
	timeout    time.Duration
	now        func() time.Time
}

func NewAnalyzer(store datastore.Gateway, chat llm.ChatService, opts AnalyzerOptions) *Analyzer {
	if chat == nil {
		chat = llm.Disabled{}
	}
	if opts.Similarity == nil {
		opts.Similarity = PrefixSimilarity{PrefixLength: DefaultDedupPrefixLength}
	}
	if opts.Validity <= 0 {
		opts.Validity = DefaultAnalysisValidity
	}
	return &Analyzer{
		store:      store,
		chat:       chat,
		similarity: opts.Similarity,
		validity:   opts.Validity,
		timeout:    opts.Timeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type AnalyzeRequest struct {
	OrganizationID string                      `json:"organizationId"`
	Repositories   []models.RepositoryAnalysis `json:"repositories"`
	ProjectContext *models.ProjectContext      `json:"projectContext,omitempty"`
	// TargetProjectID links bottlenecks and predictions; the first active project is used when empty.
	TargetProjectID string `json:"targetProjectId,omitempty"`
}

type AnalyzeResult struct {
	TasksCreated       int      `json:"tasksCreated"`
	BottlenecksCreated int      `json:"bottlenecksCreated"`
	PredictionsCreated int      `json:"predictionsCreated"`
	ProjectsCreated    int      `json:"projectsCreated"`
	Insights           []string `json:"insights"`
	Source             string   `json:"source"`                   // "model" or "heuristic"
	FallbackReason     string   `json:"fallbackReason,omitempty"` // "unavailable" or "malformed"
}

// AnalyzeAndGenerate runs prompt, parse and persist for one batch. Failures of a
// single entity are logged and skipped; only datastore reads abort the batch.
func (a *Analyzer) AnalyzeAndGenerate(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	orgID := req.OrganizationID
	projects, err := a.store.ListProjects(ctx, orgID, datastore.ProjectFilter{})
	if err != nil {
		return nil, err
	}
	tasks, err := a.store.ListTasks(ctx, orgID, datastore.TaskFilter{})
	if err != nil {
		return nil, err
	}
	target, err := a.resolveTargetProject(ctx, orgID, req.TargetProjectID, projects)
	if err != nil {
		return nil, err
	}

	taskTitles := make([]string, 0, len(tasks))
	existingTasks := make([]titledItem, 0, len(tasks))
	for _, t := range tasks {
		taskTitles = append(taskTitles, t.Title)
		existingTasks = append(existingTasks, titledItem{Title: t.Title, Repository: t.Repository})
	}

	doc, source, reason := a.generate(ctx, req, projects, taskTitles)

	result := &AnalyzeResult{
		Insights:       doc.OverallInsights,
		Source:         source,
		FallbackReason: reason,
	}
	if result.Insights == nil {
		result.Insights = []string{}
	}

	result.ProjectsCreated = a.persistProjects(ctx, orgID, doc.SuggestedProjects, projects)
	result.TasksCreated = a.persistTasks(ctx, orgID, target, doc.Tasks, existingTasks)
	result.BottlenecksCreated = a.persistBottlenecks(ctx, orgID, target, doc.Bottlenecks)
	result.PredictionsCreated = a.persistPredictions(ctx, orgID, target, doc.Predictions, source)

	slog.Info("repository analysis processed", "org", orgID, "source", source,
		"tasks", result.TasksCreated, "bottlenecks", result.BottlenecksCreated,
		"predictions", result.PredictionsCreated, "projects", result.ProjectsCreated)
	return result, nil
}

// generate asks the model for an analysis document and falls back to the
// heuristic generator when the call fails or the response cannot be parsed.
func (a *Analyzer) generate(ctx context.Context, req AnalyzeRequest, projects []models.Project, taskTitles []string) (AnalysisDocument, string, string) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, callErr := a.chat.Complete(callCtx, llm.Request{
		SystemInstruction: analyzerSystemInstruction,
		UserMessage:       buildAnalysisPrompt(req.Repositories, req.ProjectContext, projects, taskTitles),
		MaxTokens:         4000,
		Temperature:       0.3,
	})
	parsed := llm.ParseJSONResponse[AnalysisDocument](resp, callErr)
	if parsed.Status == llm.Parsed {
		return capDocument(sanitizeDocument(parsed.Value)), SourceModel, ""
	}

	slog.Warn("analysis falling back to heuristics", "org", req.OrganizationID, "reason", parsed.Status.String(), "err", parsed.Err)
	return generateFallback(req.Repositories), SourceHeuristic, parsed.Status.String()
}

func (a *Analyzer) resolveTargetProject(ctx context.Context, orgID, projectID string, projects []models.Project) (*models.Project, error) {
	if projectID != "" {
		return a.store.FindProjectByID(ctx, orgID, projectID)
	}
	for i := range projects {
		if projects[i].Status == models.ProjectStatusActive {
			return &projects[i], nil
		}
	}
	return nil, nil
}

func (a *Analyzer) persistProjects(ctx context.Context, orgID string, suggested []SuggestedProject, existing []models.Project) int {
	keys := make(map[string]bool, len(existing))
	for _, p := range existing {
		keys[strings.ToLower(p.Key)] = true
	}

	created := 0
	for _, sp := range suggested {
		key := strings.ToLower(sp.Key)
		if keys[key] {
			continue
		}
		project := &models.Project{
			OrganizationID: orgID,
			Name:           sp.Name,
			Key:            sp.Key,
			Description:    sp.Description,
			Status:         models.ProjectStatusActive,
		}
		if err := a.store.CreateProject(ctx, project); err != nil {
			slog.Warn("project create failed", "org", orgID, "key", sp.Key, "err", err)
			continue
		}
		keys[key] = true
		created++
	}
	return created
}

func (a *Analyzer) persistTasks(ctx context.Context, orgID string, target *models.Project, candidates []AnalyzedTask, existing []titledItem) int {
	titles := append([]titledItem{}, existing...)
	created := 0
	for _, c := range candidates {
		if isDuplicateOfAny(a.similarity, c.Title, c.Repository, titles) {
			slog.Debug("skipping duplicate task", "org", orgID, "title", c.Title)
			continue
		}
		task := &models.Task{
			OrganizationID: orgID,
			ProjectID:      projectIDOf(target),
			Title:          c.Title,
			Description:    c.Description,
			Status:         models.TaskStatusBacklog,
			Priority:       c.Priority,
			Labels:         models.JoinLabels(c.Category, models.AutoGeneratedLabel),
			Repository:     c.Repository,
		}
		if err := a.store.CreateTask(ctx, task); err != nil {
			slog.Warn("task create failed", "org", orgID, "title", c.Title, "err", err)
			continue
		}
		titles = append(titles, titledItem{Title: task.Title, Repository: task.Repository})
		created++
	}
	return created
}

func (a *Analyzer) persistBottlenecks(ctx context.Context, orgID string, target *models.Project, candidates []AnalyzedBottleneck) int {
	if len(candidates) == 0 {
		return 0
	}
	active, err := a.store.ListOrganizationBottlenecks(ctx, orgID, models.BottleneckStatusActive)
	if err != nil {
		slog.Warn("bottleneck lookup failed, skipping bottlenecks", "org", orgID, "err", err)
		return 0
	}
	titles := make([]titledItem, 0, len(active))
	for _, b := range active {
		titles = append(titles, titledItem{Title: b.Title, Repository: b.Repository})
	}

	created := 0
	for _, c := range candidates {
		if isDuplicateOfAny(a.similarity, c.Title, c.Repository, titles) {
			slog.Debug("skipping duplicate bottleneck", "org", orgID, "title", c.Title)
			continue
		}
		bottleneck := &models.Bottleneck{
			OrganizationID: orgID,
			ProjectID:      projectIDOf(target),
			Type:           c.Type,
			Severity:       c.Severity,
			Status:         models.BottleneckStatusActive,
			Title:          c.Title,
			Description:    c.Description,
			Impact:         c.Impact,
			Repository:     c.Repository,
		}
		if err := a.store.CreateBottleneck(ctx, bottleneck); err != nil {
			slog.Warn("bottleneck create failed", "org", orgID, "title", c.Title, "err", err)
			continue
		}
		titles = append(titles, titledItem{Title: bottleneck.Title, Repository: bottleneck.Repository})
		created++
	}
	return created
}

func (a *Analyzer) persistPredictions(ctx context.Context, orgID string, target *models.Project, candidates []AnalyzedPrediction, source string) int {
	// analyzer predictions keep their own scope so predictor runs never supersede them
	scope := models.AnalysisScope(orgID)
	if target != nil {
		scope = models.AnalysisScope(target.ID)
	}
	reasoningSource := models.ReasoningSourceModel
	if source != SourceModel {
		reasoningSource = models.ReasoningSourceTemplate
	}
	validUntil := a.now().Add(a.validity)

	created := 0
	for _, c := range candidates {
		prediction := &models.Prediction{
			OrganizationID:  orgID,
			ProjectID:       projectIDOf(target),
			Type:            c.Type,
			ScopeKey:        scope,
			Confidence:      c.Confidence,
			Reasoning:       c.Description,
			ReasoningSource: reasoningSource,
			IsActive:        true,
			ValidUntil:      &validUntil,
		}
		err := prediction.SetValue(models.AnalyzerPredictionValue{
			Title:       c.Title,
			Description: c.Description,
			Timeframe:   c.Timeframe,
			Repository:  c.Repository,
			Source:      source,
		})
		if err == nil {
			err = a.store.CreatePrediction(ctx, prediction)
		}
		if err != nil {
			slog.Warn("prediction create failed", "org", orgID, "title", c.Title, "err", fmt.Errorf("analyzer prediction: %w", err))
			continue
		}
		created++
	}
	return created
}

func projectIDOf(p *models.Project) *string {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
