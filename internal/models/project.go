package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is the root aggregate: it owns its memberships, tasks and notes,
// all of which are removed with it in one cascade.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	OwnerID     uint           `gorm:"index;not null" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Version     int64          `gorm:"not null;default:1" json:"version"` // optimistic lock counter
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) LockVersion() int64 { return p.Version }
func (p *Project) BumpVersion()       { p.Version++ }
