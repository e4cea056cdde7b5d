package services

import (
	"errors"
	"time"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

// MembershipService is the source of truth for project-role lookups and the
// (project, user) uniqueness invariant.
type MembershipService struct {
	db      *gorm.DB
	mutator *Mutator
	mail    MailQueue
}

func NewMembershipService(db *gorm.DB, mutator *Mutator, mail MailQueue) *MembershipService {
	return &MembershipService{db: db, mutator: mutator, mail: mail}
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// List returns all memberships of a project with user and audit references.
func (s *MembershipService) List(projectID uint) ([]models.ProjectMembership, error) {
	var members []models.ProjectMembership
	err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Preload("AddedBy").
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// Find returns the membership of user in project, or NotFound.
func (s *MembershipService) Find(projectID, userID uint) (*models.ProjectMembership, error) {
	var membership models.ProjectMembership
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("membership not found")
		}
		return nil, err
	}
	return &membership, nil
}

// Add creates a membership for the user identified by email. The target user
// must exist, the role must be recognized, and the (project, user) pair must
// be new; a duplicate is a Conflict, whether it is seen in the pre-check or
// as a unique-index violation under a concurrent add.
func (s *MembershipService) Add(projectID uint, req *AddMemberRequest, addedBy *models.User) (*models.ProjectMembership, error) {
	role := models.ProjectRole(req.Role)
	if !role.Valid() {
		return nil, response.NewInvalidArgument("invalid role, must be 'admin', 'project_admin', or 'member'")
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}

	var user models.User
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}

	var existing models.ProjectMembership
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, user.ID).First(&existing).Error; err == nil {
		return nil, response.NewConflict("user is already a member of this project")
	}

	membership := models.ProjectMembership{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  time.Now(),
		AddedByID: addedBy.ID,
	}

	if err := s.db.Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("user is already a member of this project")
		}
		return nil, err
	}

	if s.mail != nil {
		if err := s.mail.Enqueue(MemberInvitationMail(user.Email, user.Username, project.Name, string(role))); err != nil {
			logger.Warn().Err(err).Str("to", user.Email).Msg("failed to enqueue invitation mail")
		}
	}

	s.db.Preload("User").Preload("AddedBy").First(&membership, membership.ID)
	return &membership, nil
}

// UpdateRole changes only the role of an existing membership, through the
// optimistic-locking cycle so concurrent role edits never silently overwrite
// each other. JoinedAt and AddedBy are preserved.
func (s *MembershipService) UpdateRole(projectID, memberID uint, req *UpdateMemberRoleRequest) (*models.ProjectMembership, error) {
	role := models.ProjectRole(req.Role)
	if !role.Valid() {
		return nil, response.NewInvalidArgument("invalid role, must be 'admin', 'project_admin', or 'member'")
	}

	var membership models.ProjectMembership

	err := s.mutator.Retry(func() error {
		if err := s.db.Where("project_id = ?", projectID).First(&membership, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("membership not found")
			}
			return err
		}
		return s.mutator.OptimisticSave(s.db, &membership, map[string]interface{}{"role": role})
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("User").Preload("AddedBy").First(&membership, membership.ID)
	return &membership, nil
}

// Remove deletes the membership record only. The removed user's authored
// tasks, notes and subtasks keep their createdBy/assignee references. The row
// is removed outright: the (project, user) unique index has no deleted_at
// column, so a soft-delete tombstone would block re-adding the user.
func (s *MembershipService) Remove(projectID, memberID uint) error {
	var membership models.ProjectMembership
	if err := s.db.Where("project_id = ?", projectID).First(&membership, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("membership not found")
		}
		return err
	}

	return s.db.Unscoped().Delete(&membership).Error
}
