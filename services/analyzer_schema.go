package services

import (
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxAnalyzerTasks       = 15
	maxAnalyzerBottlenecks = 5
	maxAnalyzerPredictions = 4
)

var validate = validator.New()

type AnalyzedTask struct {
	Title          string  `json:"title" validate:"required,max=300"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority" validate:"required,oneof=low medium high urgent"`
	Category       string  `json:"category" validate:"required,oneof=feature bug testing documentation infrastructure security refactor performance"`
	Repository     string  `json:"repository,omitempty"`
	EstimatedHours float64 `json:"estimatedHours,omitempty" validate:"gte=0"`
}

type AnalyzedBottleneck struct {
	Type        string `json:"type" validate:"required,oneof=stuck-review stale-task dependency-block review-delay ci-failure"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Repository  string `json:"repository,omitempty"`
}

type AnalyzedPrediction struct {
	Type        string  `json:"type" validate:"required,oneof=deadline-risk burnout-indicator velocity-forecast scope-creep"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
	Timeframe   string  `json:"timeframe,omitempty"`
	Repository  string  `json:"repository,omitempty"`
}

type SuggestedProject struct {
	Name        string `json:"name" validate:"required"`
	Key         string `json:"key" validate:"required,max=12"`
	Description string `json:"description"`
}

// AnalysisDocument is the JSON document requested from the language model.
type AnalysisDocument struct {
	Tasks             []AnalyzedTask       `json:"tasks"`
	Bottlenecks       []AnalyzedBottleneck `json:"bottlenecks"`
	Predictions       []AnalyzedPrediction `json:"predictions"`
	SuggestedProjects []SuggestedProject   `json:"suggestedProjects"`
	OverallInsights   []string             `json:"overallInsights"`
}

// sanitizeDocument normalizes enum casing and drops items that fail validation.
func sanitizeDocument(doc AnalysisDocument) AnalysisDocument {
	out := AnalysisDocument{}
	for _, t := range doc.Tasks {
		t.Title = strings.TrimSpace(t.Title)
		t.Priority = strings.ToLower(strings.TrimSpace(t.Priority))
		t.Category = strings.ToLower(strings.TrimSpace(t.Category))
		if err := validate.Struct(t); err != nil {
			slog.Warn("dropping invalid analyzer task", "title", t.Title, "err", err)
			continue
		}
		out.Tasks = append(out.Tasks, t)
	}
	for _, b := range doc.Bottlenecks {
		b.Title = strings.TrimSpace(b.Title)
		b.Type = strings.ToLower(strings.TrimSpace(b.Type))
		b.Severity = strings.ToLower(strings.TrimSpace(b.Severity))
		if err := validate.Struct(b); err != nil {
			slog.Warn("dropping invalid analyzer bottleneck", "title", b.Title, "err", err)
			continue
		}
		out.Bottlenecks = append(out.Bottlenecks, b)
	}
	for _, p := range doc.Predictions {
		p.Title = strings.TrimSpace(p.Title)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if err := validate.Struct(p); err != nil {
			slog.Warn("dropping invalid analyzer prediction", "title", p.Title, "err", err)
			continue
		}
		out.Predictions = append(out.Predictions, p)
	}
	for _, sp := range doc.SuggestedProjects {
		sp.Name = strings.TrimSpace(sp.Name)
		sp.Key = strings.ToUpper(strings.TrimSpace(sp.Key))
		if err := validate.Struct(sp); err != nil {
			slog.Warn("dropping invalid suggested project", "name", sp.Name, "err", err)
			continue
		}
		out.SuggestedProjects = append(out.SuggestedProjects, sp)
	}
	for _, insight := range doc.OverallInsights {
		if trimmed := strings.TrimSpace(insight); trimmed != "" {
			out.OverallInsights = append(out.OverallInsights, trimmed)
		}
	}
	return out
}

func capDocument(doc AnalysisDocument) AnalysisDocument {
	if len(doc.Tasks) > maxAnalyzerTasks {
		doc.Tasks = doc.Tasks[:maxAnalyzerTasks]
	}
	if len(doc.Bottlenecks) > maxAnalyzerBottlenecks {
		doc.Bottlenecks = doc.Bottlenecks[:maxAnalyzerBottlenecks]
	}
	if len(doc.Predictions) > maxAnalyzerPredictions {
		doc.Predictions = doc.Predictions[:maxAnalyzerPredictions]
	}
	return doc
}
