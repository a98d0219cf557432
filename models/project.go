package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

type Project struct {
	ID             string `gorm:"primaryKey"`
	OrganizationID string `gorm:"index:idx_project_org_key"`
	Name           string
	Key            string `gorm:"index:idx_project_org_key"` // short key such as "API"
	Description    string `gorm:"type:text"`
	Status         string `gorm:"default:active"`
	StartDate      *time.Time
	TargetDate     *time.Time // deadline used by the deadline risk predictor
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}
