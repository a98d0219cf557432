package services

import (
	"fmt"
	"strings"
	"unicode"

	"insight-engine/models"
)

const (
	categoryTesting        = "testing"
	categoryInfrastructure = "infrastructure"
	categoryDocumentation  = "documentation"
)

// missingElementCategory maps a free-text missing element onto a task category.
func missingElementCategory(element string) (string, bool) {
	e := strings.ToLower(element)
	words := strings.FieldsFunc(e, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	hasWord := func(w string) bool {
		for _, word := range words {
			if word == w {
				return true
			}
		}
		return false
	}
	hasWordPrefix := func(prefix string) bool {
		for _, word := range words {
			if strings.HasPrefix(word, prefix) {
				return true
			}
		}
		return false
	}

	switch {
	case hasWordPrefix("test"):
		return categoryTesting, true
	case hasWord("ci") || strings.Contains(e, "pipeline") || strings.Contains(e, "continuous integration"):
		return categoryInfrastructure, true
	case strings.Contains(e, "readme") || strings.Contains(e, "documentation") || hasWord("docs"):
		return categoryDocumentation, true
	}
	return "", false
}

func fallbackTask(repo, category string) AnalyzedTask {
	switch category {
	case categoryTesting:
		return AnalyzedTask{
			Title:       fmt.Sprintf("Add test coverage for %s", repo),
			Description: fmt.Sprintf("%s has no meaningful test coverage. Add unit tests for the core modules and run them on every change.", repo),
			Priority:    models.PriorityHigh,
			Category:    categoryTesting,
			Repository:  repo,
		}
	case categoryInfrastructure:
		return AnalyzedTask{
			Title:       fmt.Sprintf("Set up CI pipeline for %s", repo),
			Description: fmt.Sprintf("%s has no continuous integration. Add a pipeline that builds and tests every pull request.", repo),
			Priority:    models.PriorityMedium,
			Category:    categoryInfrastructure,
			Repository:  repo,
		}
	default:
		return AnalyzedTask{
			Title:       fmt.Sprintf("Write README documentation for %s", repo),
			Description: fmt.Sprintf("%s is missing a README. Document setup, usage and the contribution workflow.", repo),
			Priority:    models.PriorityMedium,
			Category:    categoryDocumentation,
			Repository:  repo,
		}
	}
}

// generateFallback derives an analysis document from repository analyses alone.
// It makes no network calls and always returns the same output for the same input.
func generateFallback(repos []models.RepositoryAnalysis) AnalysisDocument {
	doc := AnalysisDocument{
		Tasks:             []AnalyzedTask{},
		Bottlenecks:       []AnalyzedBottleneck{},
		Predictions:       []AnalyzedPrediction{},
		SuggestedProjects: []SuggestedProject{},
		OverallInsights:   []string{},
	}

	var (
		totalCompleteness float64
		totalOpenPRs      int
		totalOpenIssues   int
		repoInsights      []string
	)
	for _, repo := range repos {
		seen := map[string]bool{}
		for _, element := range repo.MissingElements {
			category, ok := missingElementCategory(element)
			if !ok || seen[category] {
				continue
			}
			seen[category] = true
			doc.Tasks = append(doc.Tasks, fallbackTask(repo.Repository, category))
		}

		if repo.StalePRs > 0 {
			severity := models.SeverityMedium
			if repo.StalePRs > 3 {
				severity = models.SeverityHigh
			}
			doc.Bottlenecks = append(doc.Bottlenecks, AnalyzedBottleneck{
				Type:        models.BottleneckStuckReview,
				Severity:    severity,
				Title:       fmt.Sprintf("Stale pull requests awaiting review in %s", repo.Repository),
				Description: fmt.Sprintf("%d pull requests in %s have had no activity recently.", repo.StalePRs, repo.Repository),
				Impact:      "Merged work is delayed and branches drift from the main line.",
				Repository:  repo.Repository,
			})
		}

		if repo.CompletenessScore < 50 {
			doc.Predictions = append(doc.Predictions, AnalyzedPrediction{
				Type:        models.PredictionDeadlineRisk,
				Title:       fmt.Sprintf("Completion at risk for %s", repo.Repository),
				Description: fmt.Sprintf("%s has a completeness score of %.0f%%, so related milestones are likely to slip.", repo.Repository, repo.CompletenessScore),
				Confidence:  0.7,
				Timeframe:   "next 30 days",
				Repository:  repo.Repository,
			})
		}

		totalCompleteness += repo.CompletenessScore
		totalOpenPRs += repo.OpenPRs
		totalOpenIssues += repo.OpenIssues
		if repo.TotalTodos > 10 {
			repoInsights = append(repoInsights, fmt.Sprintf("%s contains %d TODO comments that should be triaged.", repo.Repository, repo.TotalTodos))
		}
	}

	if len(repos) > 0 {
		doc.OverallInsights = append(doc.OverallInsights,
			fmt.Sprintf("Average repository completeness is %.0f%% across %d repositories.", totalCompleteness/float64(len(repos)), len(repos)),
			fmt.Sprintf("%d open pull requests across all repositories.", totalOpenPRs),
			fmt.Sprintf("%d open issues across all repositories.", totalOpenIssues),
		)
	}
	doc.OverallInsights = append(doc.OverallInsights, repoInsights...)

	return capDocument(doc)
}
