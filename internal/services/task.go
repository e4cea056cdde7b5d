package services

import (
	"errors"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskService struct {
	db      *gorm.DB
	mutator *Mutator
	files   *FileStore
}

func NewTaskService(db *gorm.DB, mutator *Mutator, files *FileStore) *TaskService {
	return &TaskService{db: db, mutator: mutator, files: files}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	AssigneeID  *uint  `json:"assignee_id"`
	Status      string `json:"status"`
}

type UpdateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssigneeID  *uint   `json:"assignee_id"`
	Status      string  `json:"status"`
}

// List returns all tasks of a project with their assignees.
func (s *TaskService) List(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Where("project_id = ?", projectID).
		Preload("Assignee").
		Preload("Attachments").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// GetByID returns a task scoped to its project, or NotFound.
func (s *TaskService) GetByID(projectID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.db.Where("project_id = ?", projectID).
		Preload("Assignee").
		Preload("CreatedBy").
		Preload("Attachments").
		First(&task, taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, err
	}
	return &task, nil
}

// Create adds a task to the project. An assignee, when given, must hold a
// membership in the same project.
func (s *TaskService) Create(projectID uint, req *CreateTaskRequest, createdBy *models.User) (*models.Task, error) {
	status := models.TaskStatus(req.Status)
	if req.Status == "" {
		status = models.TaskStatusTodo
	} else if !status.Valid() {
		return nil, response.NewInvalidArgument("invalid status, must be 'todo', 'in_progress', or 'done'")
	}

	if req.AssigneeID != nil {
		if err := s.requireMember(projectID, *req.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Status:      status,
		CreatedByID: createdBy.ID,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}
	return s.GetByID(projectID, task.ID)
}

// Update applies a partial update. Plain members may only move the status of
// tasks assigned to them; everything else needs a project admin, which the
// caller asserts through the membership role.
func (s *TaskService) Update(projectID, taskID uint, req *UpdateTaskRequest, membership *models.ProjectMembership) (*models.Task, error) {
	task, err := s.GetByID(projectID, taskID)
	if err != nil {
		return nil, err
	}

	isPlainMember := membership.Role == models.ProjectRoleMember
	if isPlainMember {
		if req.Title != "" || req.Description != nil || req.AssigneeID != nil {
			return nil, response.NewForbidden("members may only change the status of their own tasks")
		}
		if task.AssigneeID == nil || *task.AssigneeID != membership.UserID {
			return nil, response.NewForbidden("members may only change the status of their own tasks")
		}
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssigneeID != nil {
		if err := s.requireMember(projectID, *req.AssigneeID); err != nil {
			return nil, err
		}
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.Status != "" {
		status := models.TaskStatus(req.Status)
		if !status.Valid() {
			return nil, response.NewInvalidArgument("invalid status, must be 'todo', 'in_progress', or 'done'")
		}
		updates["status"] = status
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.Model(task).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(projectID, taskID)
}

// Delete removes the task, its subtasks and its attachments in one
// transaction, then unlinks the attachment files.
func (s *TaskService) Delete(projectID, taskID uint) error {
	task, err := s.GetByID(projectID, taskID)
	if err != nil {
		return err
	}

	var stored []string
	if err := s.db.Model(&models.Attachment{}).Where("task_id = ?", taskID).Pluck("stored_name", &stored).Error; err != nil {
		return err
	}

	steps := []DeleteStep{
		{Model: &models.Subtask{}, Where: "task_id = ?", Args: []interface{}{taskID}},
		{Model: &models.Attachment{}, Where: "task_id = ?", Args: []interface{}{taskID}},
		{Model: &models.Task{}, Where: "id = ?", Args: []interface{}{taskID}},
	}
	if err := s.mutator.Cascade(steps); err != nil {
		return err
	}

	for _, name := range stored {
		if err := s.files.Remove(name); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("failed to remove attachment file")
		}
	}

	logger.Info().Uint("task", taskID).Str("title", task.Title).Msg("task cascade deleted")
	return nil
}

func (s *TaskService) requireMember(projectID, userID uint) error {
	var count int64
	s.db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count)
	if count == 0 {
		return response.NewInvalidArgument("assignee is not a member of this project")
	}
	return nil
}
