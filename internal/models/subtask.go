package models

import (
	"time"

	"gorm.io/gorm"
)

// Subtask belongs to a task. Plain project members may only flip IsCompleted;
// other fields are reserved for project admins.
type Subtask struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TaskID      uint           `gorm:"index;not null" json:"task_id"`
	Task        *Task          `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	IsCompleted bool           `gorm:"default:false" json:"is_completed"`
	CreatedByID uint           `json:"created_by_id"`
	CreatedBy   *User          `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Subtask) TableName() string { return "subtasks" }
