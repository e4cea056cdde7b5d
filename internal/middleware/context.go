package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/models"
)

const (
	// ContextPrincipal holds the authenticated *models.User.
	ContextPrincipal = "principal"
	// ContextPrincipalID duplicates the principal id for the request logger.
	ContextPrincipalID = "principal_id"
	// ContextProject holds the *models.Project resolved from the path.
	ContextProject = "project"
	// ContextMembership holds the principal's *models.ProjectMembership.
	ContextMembership = "membership"
)

// GetPrincipal returns the authenticated user, or nil before AuthRequired ran.
func GetPrincipal(c *gin.Context) *models.User {
	if v, exists := c.Get(ContextPrincipal); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// GetProject returns the project resolved by ProjectMemberRequired.
func GetProject(c *gin.Context) *models.Project {
	if v, exists := c.Get(ContextProject); exists {
		if project, ok := v.(*models.Project); ok {
			return project
		}
	}
	return nil
}

// GetMembership returns the membership resolved by ProjectMemberRequired.
func GetMembership(c *gin.Context) *models.ProjectMembership {
	if v, exists := c.Get(ContextMembership); exists {
		if membership, ok := v.(*models.ProjectMembership); ok {
			return membership
		}
	}
	return nil
}
