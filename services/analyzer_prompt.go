package services

import (
	"fmt"
	"strings"

	"insight-engine/models"
)

const maxPromptTaskTitles = 100

const analyzerSystemInstruction = "You are an engineering operations analyst. You turn repository health data into concrete, " +
	"non-duplicated work items. Respond with a single JSON document and nothing else."

const analyzerResponseFormat = `Respond with exactly this JSON structure (all five arrays must be present, use [] when empty):
{
  "tasks": [{"title": "", "description": "", "priority": "low|medium|high|urgent", "category": "feature|bug|testing|documentation|infrastructure|security|refactor|performance", "repository": "", "estimatedHours": 0}],
  "bottlenecks": [{"type": "stuck-review|stale-task|dependency-block|review-delay|ci-failure", "severity": "low|medium|high|critical", "title": "", "description": "", "impact": "", "repository": ""}],
  "predictions": [{"type": "deadline-risk|burnout-indicator|velocity-forecast|scope-creep", "title": "", "description": "", "confidence": 0.0, "timeframe": "", "repository": ""}],
  "suggestedProjects": [{"name": "", "key": "", "description": ""}],
  "overallInsights": [""]
}
Limits: at most 15 tasks, 5 bottlenecks and 4 predictions. Confidence is between 0 and 1.`

func buildAnalysisPrompt(repos []models.RepositoryAnalysis, projectContext *models.ProjectContext, projects []models.Project, taskTitles []string) string {
	var b strings.Builder

	b.WriteString("## Repositories\n")
	for _, r := range repos {
		fmt.Fprintf(&b, "- %s: completeness %.0f/100, open issues %d (stale %d), open PRs %d (stale %d), TODOs %d, tests %s, CI %s, docs %s\n",
			r.Repository, r.CompletenessScore, r.OpenIssues, r.StaleIssues, r.OpenPRs, r.StalePRs, r.TotalTodos,
			yesNo(r.HasTests), yesNo(r.HasCI), yesNo(r.HasDocs))
		if len(r.MissingElements) > 0 {
			fmt.Fprintf(&b, "  missing: %s\n", strings.Join(r.MissingElements, ", "))
		}
		if len(r.Languages) > 0 {
			fmt.Fprintf(&b, "  languages: %s\n", strings.Join(r.Languages, ", "))
		}
	}

	if !projectContext.IsEmpty() {
		b.WriteString("\n## Project context\n")
		if projectContext.Description != "" {
			fmt.Fprintf(&b, "What is being built: %s\n", projectContext.Description)
		}
		writeList(&b, "Goals", projectContext.Goals)
		writeList(&b, "Tech stack", projectContext.TechStack)
		writeList(&b, "Milestones", projectContext.Milestones)
	}

	b.WriteString("\n## Existing projects (do not suggest these again)\n")
	if len(projects) == 0 {
		b.WriteString("none\n")
	}
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Key)
	}

	b.WriteString("\n## Existing tasks (do not create duplicates)\n")
	if len(taskTitles) == 0 {
		b.WriteString("none\n")
	}
	for i, title := range taskTitles {
		if i == maxPromptTaskTitles {
			fmt.Fprintf(&b, "... and %d more\n", len(taskTitles)-maxPromptTaskTitles)
			break
		}
		fmt.Fprintf(&b, "- %s\n", title)
	}

	b.WriteString("\n")
	b.WriteString(analyzerResponseFormat)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, "; "))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
