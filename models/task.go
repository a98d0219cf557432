package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	TaskStatusBacklog    = "backlog"
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusInReview   = "in_review"
	TaskStatusDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// AutoGeneratedLabel marks tasks created by the analyzer.
const AutoGeneratedLabel = "auto-generated"

type Task struct {
	ID             string  `gorm:"primaryKey"`
	OrganizationID string  `gorm:"index"`
	ProjectID      *string `gorm:"index"`
	Title          string
	Description    string `gorm:"type:text"`
	Status         string `gorm:"index"` // "backlog", "todo", "in_progress", "in_review", "done"
	Priority       string
	Assignee       string `gorm:"index"` // Member.UserID
	Labels         string // comma separated
	Repository     string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// IsDone reports whether the task is in its terminal state.
func (t Task) IsDone() bool {
	return t.Status == TaskStatusDone
}

// CompletionTime falls back to UpdatedAt for done tasks that never recorded CompletedAt.
func (t Task) CompletionTime() (time.Time, bool) {
	if !t.IsDone() {
		return time.Time{}, false
	}
	if t.CompletedAt != nil {
		return *t.CompletedAt, true
	}
	return t.UpdatedAt, true
}

func (t Task) LabelList() []string {
	if t.Labels == "" {
		return []string{}
	}
	parts := strings.Split(t.Labels, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

func JoinLabels(labels ...string) string {
	kept := make([]string, 0, len(labels))
	for _, l := range labels {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ",")
}
