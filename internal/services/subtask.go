package services

import (
	"errors"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

type SubtaskService struct {
	db *gorm.DB
}

func NewSubtaskService(db *gorm.DB) *SubtaskService {
	return &SubtaskService{db: db}
}

type CreateSubtaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// UpdateSubtaskRequest is a partial update; nil means "leave unchanged".
type UpdateSubtaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

// List returns all subtasks of a task.
func (s *SubtaskService) List(projectID, taskID uint) ([]models.Subtask, error) {
	if err := s.requireTask(projectID, taskID); err != nil {
		return nil, err
	}
	var subtasks []models.Subtask
	err := s.db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&subtasks).Error
	return subtasks, err
}

// GetByID returns a subtask scoped to its task and project.
func (s *SubtaskService) GetByID(projectID, taskID, subtaskID uint) (*models.Subtask, error) {
	if err := s.requireTask(projectID, taskID); err != nil {
		return nil, err
	}
	var subtask models.Subtask
	err := s.db.Where("task_id = ?", taskID).First(&subtask, subtaskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("subtask not found")
		}
		return nil, err
	}
	return &subtask, nil
}

func (s *SubtaskService) Create(projectID, taskID uint, req *CreateSubtaskRequest, createdBy *models.User) (*models.Subtask, error) {
	if err := s.requireTask(projectID, taskID); err != nil {
		return nil, err
	}

	subtask := models.Subtask{
		TaskID:      taskID,
		Title:       req.Title,
		Description: req.Description,
		CreatedByID: createdBy.ID,
	}
	if err := s.db.Create(&subtask).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

// Update applies a field-level role gate: plain members may only toggle
// is_completed; title and description edits need a project admin.
func (s *SubtaskService) Update(projectID, taskID, subtaskID uint, req *UpdateSubtaskRequest, membership *models.ProjectMembership) (*models.Subtask, error) {
	subtask, err := s.GetByID(projectID, taskID, subtaskID)
	if err != nil {
		return nil, err
	}

	if membership.Role == models.ProjectRoleMember && (req.Title != nil || req.Description != nil) {
		return nil, response.NewForbidden("members may only toggle subtask completion")
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		if *req.Title == "" {
			return nil, response.NewInvalidArgument("title must not be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsCompleted != nil {
		updates["is_completed"] = *req.IsCompleted
	}
	if len(updates) == 0 {
		return subtask, nil
	}

	if err := s.db.Model(subtask).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(projectID, taskID, subtaskID)
}

func (s *SubtaskService) Delete(projectID, taskID, subtaskID uint) error {
	subtask, err := s.GetByID(projectID, taskID, subtaskID)
	if err != nil {
		return err
	}
	return s.db.Delete(subtask).Error
}

func (s *SubtaskService) requireTask(projectID, taskID uint) error {
	var count int64
	s.db.Model(&models.Task{}).Where("id = ? AND project_id = ?", taskID, projectID).Count(&count)
	if count == 0 {
		return response.NewNotFound("task not found")
	}
	return nil
}
