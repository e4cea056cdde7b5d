package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

// RoleRequired allows only principals whose system role is in the allow-list.
// It is a pure check over the principal resolved by AuthRequired; it performs
// no I/O of its own.
func RoleRequired(roles ...models.SystemRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			response.AbortError(c, response.NewPreconditionFailed("system-role check ran before authentication"))
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		denyAndAudit(c, response.NewForbidden("insufficient system role"))
	}
}

// ProjectMemberRequired resolves the :id path segment to a project and the
// principal's membership in it. The id shape is validated before any lookup,
// so a malformed id never reaches the database.
func ProjectMemberRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			response.AbortError(c, response.NewPreconditionFailed("membership check ran before authentication"))
			return
		}

		projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			denyAndAudit(c, response.NewInvalidArgument("invalid project id"))
			return
		}

		var project models.Project
		if err := db.First(&project, uint(projectID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				denyAndAudit(c, response.NewNotFound("project not found"))
				return
			}
			response.AbortError(c, response.NewInternal("failed to load project"))
			return
		}

		var membership models.ProjectMembership
		err = db.Where("project_id = ? AND user_id = ?", project.ID, principal.ID).First(&membership).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				denyAndAudit(c, response.NewForbidden("not a member of this project"))
				return
			}
			response.AbortError(c, response.NewInternal("failed to load membership"))
			return
		}

		c.Set(ContextProject, &project)
		c.Set(ContextMembership, &membership)
		c.Next()
	}
}

// ProjectRoleRequired allows only memberships whose project role is in the
// allow-list. It depends on ProjectMemberRequired having populated the
// context; running it without that guard is a server bug, reported as an
// internal PreconditionFailed rather than a client error. Successful grants
// are audit-logged.
func ProjectRoleRequired(roles ...models.ProjectRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership := GetMembership(c)
		if membership == nil {
			response.AbortError(c, response.NewPreconditionFailed("project-role check ran before membership check"))
			return
		}
		for _, role := range roles {
			if membership.Role == role {
				auditGranted(c, membership)
				c.Next()
				return
			}
		}
		denyAndAudit(c, response.NewForbidden("insufficient project role"))
	}
}
