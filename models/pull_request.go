package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PullRequestStateOpen   = "open"
	PullRequestStateClosed = "closed"
	PullRequestStateMerged = "merged"
)

type PullRequest struct {
	ID             string  `gorm:"primaryKey"`
	OrganizationID string  `gorm:"index;index:idx_pr_org_repo_number,unique,priority:1"`
	ProjectID      *string `gorm:"index"`
	Repo           string  `gorm:"index:idx_pr_org_repo_number,unique,priority:2"` // owner/name
	Number         int     `gorm:"index:idx_pr_org_repo_number,unique,priority:3"`
	Title          string
	URL            string
	Author         string // GitHub login
	AuthorName     string
	State          string
	Draft          bool
	OpenedAt       time.Time
	MergedAt       *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}
