package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectMembership maps (project, user) to a project role. The composite
// unique index enforces at most one membership per user per project.
type ProjectMembership struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uint           `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      ProjectRole    `gorm:"size:50;default:member" json:"role"`
	JoinedAt  time.Time      `json:"joined_at"`
	AddedByID uint           `json:"added_by_id"`
	AddedBy   *User          `gorm:"foreignKey:AddedByID" json:"added_by,omitempty"`
	Version   int64          `gorm:"not null;default:1" json:"version"` // optimistic lock counter
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectMembership) TableName() string { return "project_memberships" }

func (m *ProjectMembership) LockVersion() int64 { return m.Version }
func (m *ProjectMembership) BumpVersion()       { m.Version++ }
