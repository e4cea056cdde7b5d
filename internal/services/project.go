package services

import (
	"errors"
	"time"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db      *gorm.DB
	mutator *Mutator
	files   *FileStore
}

func NewProjectService(db *gorm.DB, mutator *Mutator, files *FileStore) *ProjectService {
	return &ProjectService{db: db, mutator: mutator, files: files}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Name     string `form:"name"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// List returns the projects visible to the principal: everything for system
// admins, membership-scoped otherwise.
func (s *ProjectService) List(req *ProjectListRequest, principal *models.User) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	query := s.db.Model(&models.Project{})

	if principal.Role != models.SystemRoleAdmin {
		query = query.Where(
			"id IN (?)",
			s.db.Model(&models.ProjectMembership{}).Select("project_id").Where("user_id = ?", principal.ID),
		)
	}
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}

	var total int64
	query.Count(&total)

	var projects []models.Project
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Owner").Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Owner").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

// Create creates the project and the owner's admin membership in one
// transaction. Either both records exist afterwards or neither does.
func (s *ProjectService) Create(req *CreateProjectRequest, owner *models.User) (*models.Project, error) {
	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     owner.ID,
	}

	err := s.mutator.Atomic(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		membership := models.ProjectMembership{
			ProjectID: project.ID,
			UserID:    owner.ID,
			Role:      models.ProjectRoleAdmin,
			JoinedAt:  time.Now(),
			AddedByID: owner.ID,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(project.ID)
}

// Update mutates name/description through the optimistic-locking cycle:
// re-fetch, apply, persist with a version guard, retry on conflict.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	var project models.Project

	err := s.mutator.Retry(func() error {
		if err := s.db.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("project not found")
			}
			return err
		}

		updates := make(map[string]interface{})
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if len(updates) == 0 {
			return nil
		}

		return s.mutator.OptimisticSave(s.db, &project, updates)
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(id)
}

// cascadeSteps is the ordered deletion plan for a project: children before
// parents, so no step ever orphans a row another step still needs.
func (s *ProjectService) cascadeSteps(projectID uint) []DeleteStep {
	taskIDs := s.db.Model(&models.Task{}).Select("id").Where("project_id = ?", projectID)
	return []DeleteStep{
		{Model: &models.Subtask{}, Where: "task_id IN (?)", Args: []interface{}{taskIDs}},
		{Model: &models.Attachment{}, Where: "task_id IN (?)", Args: []interface{}{taskIDs}},
		{Model: &models.Task{}, Where: "project_id = ?", Args: []interface{}{projectID}},
		{Model: &models.Note{}, Where: "project_id = ?", Args: []interface{}{projectID}},
		{Model: &models.ProjectMembership{}, Where: "project_id = ?", Args: []interface{}{projectID}},
		{Model: &models.Project{}, Where: "id = ?", Args: []interface{}{projectID}},
	}
}

// Delete removes the project and everything it owns in one transaction.
// Attachment files are unlinked only after the transaction commits; a failed
// cascade leaves both rows and files untouched.
func (s *ProjectService) Delete(id uint) error {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("project not found")
		}
		return err
	}

	var stored []string
	if err := s.db.Model(&models.Attachment{}).
		Where("task_id IN (?)", s.db.Model(&models.Task{}).Select("id").Where("project_id = ?", id)).
		Pluck("stored_name", &stored).Error; err != nil {
		return err
	}

	if err := s.mutator.Cascade(s.cascadeSteps(id)); err != nil {
		return err
	}

	for _, name := range stored {
		if err := s.files.Remove(name); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("failed to remove attachment file")
		}
	}

	logger.Info().Uint("project", id).Str("name", project.Name).Msg("project cascade deleted")
	return nil
}
