package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment records an uploaded file on a task. The bytes live on disk under
// StoredName; deleting the row is expected to remove the file as well.
type Attachment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TaskID       uint           `gorm:"index;not null" json:"task_id"`
	FileName     string         `gorm:"size:255;not null" json:"file_name"`
	StoredName   string         `gorm:"uniqueIndex;size:255;not null" json:"-"`
	Size         int64          `json:"size"`
	ContentType  string         `gorm:"size:100" json:"content_type"`
	UploadedByID uint           `json:"uploaded_by_id"`
	UploadedBy   *User          `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Attachment) TableName() string { return "attachments" }
