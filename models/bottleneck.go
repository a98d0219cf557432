package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BottleneckStuckReview     = "stuck-review"
	BottleneckStaleTask       = "stale-task"
	BottleneckDependencyBlock = "dependency-block"
	BottleneckReviewDelay     = "review-delay"
	BottleneckCIFailure       = "ci-failure"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	BottleneckStatusActive   = "active"
	BottleneckStatusResolved = "resolved"
)

type Bottleneck struct {
	ID             string  `gorm:"primaryKey"`
	OrganizationID string  `gorm:"index"`
	ProjectID      *string `gorm:"index"`
	Type           string
	Severity       string
	Status         string `gorm:"default:active;index"`
	Title          string
	Description    string `gorm:"type:text"`
	Impact         string `gorm:"type:text"`
	Repository     string
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}
