package models

// RepositoryAnalysis is produced by an external analysis provider and is never persisted here.
type RepositoryAnalysis struct {
	Repository        string   `json:"repository"`
	CompletenessScore float64  `json:"completenessScore"` // 0-100
	MissingElements   []string `json:"missingElements"`
	OpenIssues        int      `json:"openIssues"`
	StaleIssues       int      `json:"staleIssues"`
	OpenPRs           int      `json:"openPRs"`
	StalePRs          int      `json:"stalePRs"`
	TotalTodos        int      `json:"totalTodos"`
	HasTests          bool     `json:"hasTests"`
	HasCI             bool     `json:"hasCI"`
	HasDocs           bool     `json:"hasDocs"`
	Languages         []string `json:"languages,omitempty"`
}

// ProjectContext is free-text guidance supplied alongside an analysis batch.
type ProjectContext struct {
	Description string   `json:"description,omitempty"`
	Goals       []string `json:"goals,omitempty"`
	TechStack   []string `json:"techStack,omitempty"`
	Milestones  []string `json:"milestones,omitempty"`
}

func (c *ProjectContext) IsEmpty() bool {
	return c == nil || (c.Description == "" && len(c.Goals) == 0 && len(c.TechStack) == 0 && len(c.Milestones) == 0)
}
