package services

import (
	"errors"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

type NoteService struct {
	db *gorm.DB
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

func (s *NoteService) List(projectID uint) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.Where("project_id = ?", projectID).
		Preload("CreatedBy").
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

func (s *NoteService) GetByID(projectID, noteID uint) (*models.Note, error) {
	var note models.Note
	err := s.db.Where("project_id = ?", projectID).Preload("CreatedBy").First(&note, noteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("note not found")
		}
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) Create(projectID uint, req *CreateNoteRequest, createdBy *models.User) (*models.Note, error) {
	note := models.Note{
		ProjectID:   projectID,
		Title:       req.Title,
		Content:     req.Content,
		CreatedByID: createdBy.ID,
	}
	if err := s.db.Create(&note).Error; err != nil {
		return nil, err
	}
	return s.GetByID(projectID, note.ID)
}

// Update allows the author or a project admin to edit a note.
func (s *NoteService) Update(projectID, noteID uint, req *UpdateNoteRequest, membership *models.ProjectMembership) (*models.Note, error) {
	note, err := s.GetByID(projectID, noteID)
	if err != nil {
		return nil, err
	}
	if !canModifyNote(note, membership) {
		return nil, response.NewForbidden("only the author or a project admin may edit this note")
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if len(updates) == 0 {
		return note, nil
	}

	if err := s.db.Model(note).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(projectID, noteID)
}

func (s *NoteService) Delete(projectID, noteID uint, membership *models.ProjectMembership) error {
	note, err := s.GetByID(projectID, noteID)
	if err != nil {
		return err
	}
	if !canModifyNote(note, membership) {
		return response.NewForbidden("only the author or a project admin may delete this note")
	}
	return s.db.Delete(note).Error
}

func canModifyNote(note *models.Note, membership *models.ProjectMembership) bool {
	if membership.Role == models.ProjectRoleAdmin || membership.Role == models.ProjectRoleProjectAdmin {
		return true
	}
	return note.CreatedByID == membership.UserID
}
