package models

import (
	"time"

	"gorm.io/gorm"
)

// Member is a user of an organization. GithubLogin maps pull request authors back to users.
type Member struct {
	ID             string `gorm:"primaryKey"`
	OrganizationID string `gorm:"index:idx_member_org_user,unique"`
	UserID         string `gorm:"index:idx_member_org_user,unique"`
	DisplayName    string
	GithubLogin    string `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.UserID
}
