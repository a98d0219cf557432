package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-engine/datastore"
	"insight-engine/llm"
	"insight-engine/models"
	"insight-engine/services"
)

func setupTestRouter(t *testing.T, secret string) (*gin.Engine, *datastore.GormGateway) {
	gin.SetMode(gin.TestMode)
	db, err := datastore.Open(":memory:")
	if err != nil {
		t.Fatalf("fail to open test db: %v", err)
	}
	store := datastore.NewGormGateway(db)
	router := NewRouter(RouterOptions{
		Store:         store,
		Predictions:   services.NewPredictionService(store, llm.Disabled{}, services.PredictionOptions{}),
		Analyzer:      services.NewAnalyzer(store, llm.Disabled{}, services.AnalyzerOptions{}),
		WebhookSecret: secret,
	})
	return router, store
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRunPredictions_ProjectReport(t *testing.T) {
	router, store := setupTestRouter(t, "")
	ctx := context.Background()

	target := time.Now().UTC().AddDate(0, 0, 10)
	project := &models.Project{OrganizationID: "org-1", Name: "API", Key: "API", Status: models.ProjectStatusActive, TargetDate: &target}
	require.NoError(t, store.CreateProject(ctx, project))
	for i := 0; i < 4; i++ {
		require.NoError(t, store.CreateTask(ctx, &models.Task{OrganizationID: "org-1", ProjectID: &project.ID, Title: "task", Status: models.TaskStatusTodo}))
	}

	w := doJSON(router, http.MethodPost, "/organizations/org-1/predictions/run", gin.H{"projectId": project.ID})

	require.Equal(t, http.StatusOK, w.Code)
	var report services.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "org-1", report.OrganizationID)

	outcomes := map[string]string{}
	for _, r := range report.Results {
		outcomes[r.Predictor] = r.Outcome
	}
	assert.Equal(t, services.OutcomeWritten, outcomes[models.PredictionDeadlineRisk])
	assert.Equal(t, services.OutcomeSkipped, outcomes[models.PredictionScopeCreep])
	assert.Equal(t, services.OutcomeSkipped, outcomes[models.PredictionVelocityForecast])

	w = doJSON(router, http.MethodGet, "/organizations/org-1/predictions?type=deadline-risk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Predictions []struct {
			Type            string          `json:"type"`
			ReasoningSource string          `json:"reasoningSource"`
			Value           json.RawMessage `json:"value"`
		} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Predictions, 1)
	assert.Equal(t, models.ReasoningSourceTemplate, body.Predictions[0].ReasoningSource)

	var value models.DeadlineRiskValue
	require.NoError(t, json.Unmarshal(body.Predictions[0].Value, &value))
	assert.Equal(t, "critical", value.RiskLevel)
	assert.Equal(t, 4, value.RemainingTasks)
}

func TestListPredictions_InvalidActiveFlag(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/organizations/org-1/predictions?active=maybe", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_FallbackWithoutModel(t *testing.T) {
	router, store := setupTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/organizations/org-1/analyses", gin.H{
		"repositories": []gin.H{{
			"repository":        "acme/api",
			"completenessScore": 40,
			"missingElements":   []string{"unit tests"},
			"stalePRs":          2,
		}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var result services.AnalyzeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, services.SourceHeuristic, result.Source)
	assert.Equal(t, "unavailable", result.FallbackReason)
	assert.Equal(t, 1, result.TasksCreated)
	assert.Equal(t, 1, result.BottlenecksCreated)
	assert.Equal(t, 1, result.PredictionsCreated)

	w = doJSON(router, http.MethodGet, "/organizations/org-1/bottlenecks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Bottlenecks []struct {
			Title    string `json:"title"`
			Severity string `json:"severity"`
		} `json:"bottlenecks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Bottlenecks, 1)
	assert.Equal(t, "Stale pull requests awaiting review in acme/api", body.Bottlenecks[0].Title)

	tasks, err := store.ListTasks(context.Background(), "org-1", datastore.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskStatusBacklog, tasks[0].Status)
}

func TestAnalyze_MissingRepositories(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/organizations/org-1/analyses", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_UnknownTargetProject(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/organizations/org-1/analyses", gin.H{
		"repositories":    []gin.H{{"repository": "acme/api", "completenessScore": 90}},
		"targetProjectId": "missing",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBottlenecks_InvalidStatus(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/organizations/org-1/bottlenecks?status=open", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func pullRequestPayload(t *testing.T, action string, number int) []byte {
	created := github.Timestamp{Time: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
	payload := github.PullRequestEvent{
		Action: github.Ptr(action),
		Number: github.Ptr(number),
		PullRequest: &github.PullRequest{
			Number:    github.Ptr(number),
			Title:     github.Ptr("Add rate limiting"),
			HTMLURL:   github.Ptr("https://github.com/acme/api/pull/7"),
			State:     github.Ptr("open"),
			User:      &github.User{Login: github.Ptr("alice")},
			CreatedAt: &created,
		},
		Repo: &github.Repository{
			Name:  github.Ptr("api"),
			Owner: &github.User{Login: github.Ptr("acme")},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestGitHubWebhook_PullRequestUpserted(t *testing.T) {
	router, store := setupTestRouter(t, "")

	for _, action := range []string{"opened", "edited"} {
		req, _ := http.NewRequest(http.MethodPost, "/webhook/github?org=org-1", bytes.NewBuffer(pullRequestPayload(t, action, 7)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-GitHub-Event", "pull_request")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	prs, err := store.ListPullRequests(context.Background(), "org-1", datastore.PullRequestFilter{})
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, "acme/api", prs[0].Repo)
	assert.Equal(t, 7, prs[0].Number)
	assert.Equal(t, "alice", prs[0].Author)
}

func TestGitHubWebhook_MissingOrg(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	req, _ := http.NewRequest(http.MethodPost, "/webhook/github", bytes.NewBuffer(pullRequestPayload(t, "opened", 7)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "pull_request")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGitHubWebhook_Signature(t *testing.T) {
	const secret = "s3cret"
	router, _ := setupTestRouter(t, secret)
	body := pullRequestPayload(t, "opened", 9)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name      string
		signature string
		expected  int
	}{
		{name: "valid signature", signature: valid, expected: http.StatusOK},
		{name: "wrong signature", signature: "sha256=" + hex.EncodeToString(make([]byte, 32)), expected: http.StatusUnauthorized},
		{name: "missing signature", signature: "", expected: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, "/webhook/github?org=org-1", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", "pull_request")
			if tt.signature != "" {
				req.Header.Set("X-Hub-Signature-256", tt.signature)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestGitHubWebhook_IgnoresOtherEvents(t *testing.T) {
	router, _ := setupTestRouter(t, "")

	req, _ := http.NewRequest(http.MethodPost, "/webhook/github?org=org-1", bytes.NewBufferString(`{"zen":"Keep it simple."}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "ping")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
