package services

import (
	"errors"
	"mime/multipart"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

type AttachmentService struct {
	db    *gorm.DB
	files *FileStore
}

func NewAttachmentService(db *gorm.DB, files *FileStore) *AttachmentService {
	return &AttachmentService{db: db, files: files}
}

func (s *AttachmentService) List(projectID, taskID uint) ([]models.Attachment, error) {
	if err := s.requireTask(projectID, taskID); err != nil {
		return nil, err
	}
	var attachments []models.Attachment
	err := s.db.Where("task_id = ?", taskID).Preload("UploadedBy").Find(&attachments).Error
	return attachments, err
}

// Upload stores the file on disk and its metadata row. A failed row insert
// removes the just-written file so the two stay in step.
func (s *AttachmentService) Upload(projectID, taskID uint, fh *multipart.FileHeader, uploadedBy *models.User) (*models.Attachment, error) {
	if err := s.requireTask(projectID, taskID); err != nil {
		return nil, err
	}

	storedName, err := s.files.Save(fh)
	if err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		TaskID:       taskID,
		FileName:     fh.Filename,
		StoredName:   storedName,
		Size:         fh.Size,
		ContentType:  fh.Header.Get("Content-Type"),
		UploadedByID: uploadedBy.ID,
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		s.files.Remove(storedName)
		return nil, err
	}
	return &attachment, nil
}

// Get returns the metadata row plus the on-disk path for download handlers.
func (s *AttachmentService) Get(projectID, taskID, attachmentID uint) (*models.Attachment, string, error) {
	if err := s.requireTask(projectID, taskID); err != nil {
		return nil, "", err
	}
	var attachment models.Attachment
	err := s.db.Where("task_id = ?", taskID).First(&attachment, attachmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", response.NewNotFound("attachment not found")
		}
		return nil, "", err
	}
	return &attachment, s.files.Path(attachment.StoredName), nil
}

func (s *AttachmentService) Delete(projectID, taskID, attachmentID uint) error {
	attachment, _, err := s.Get(projectID, taskID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(attachment).Error; err != nil {
		return err
	}
	return s.files.Remove(attachment.StoredName)
}

func (s *AttachmentService) requireTask(projectID, taskID uint) error {
	var count int64
	s.db.Model(&models.Task{}).Where("id = ? AND project_id = ?", taskID, projectID).Count(&count)
	if count == 0 {
		return response.NewNotFound("task not found")
	}
	return nil
}
