package models

import "time"

// BehavioralMetric is one user's activity sample for one day.
type BehavioralMetric struct {
	ID                 string    `gorm:"primaryKey"`
	OrganizationID     string    `gorm:"index:idx_metric_org_user"`
	UserID             string    `gorm:"index:idx_metric_org_user"`
	Date               time.Time `gorm:"index"`
	MessageCount       int
	ActiveHoursStart   string // "HH:MM"
	ActiveHoursEnd     string // "HH:MM"
	WeekendActivity    bool
	CollaborationScore float64
	CreatedAt          time.Time
}
