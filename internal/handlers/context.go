package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
)

// The guard chain populates the request context before a handler runs. A
// handler reached without its guard is a routing bug; these accessors report
// it the same way the guards report mis-ordering instead of dereferencing
// nil.

func contextPrincipal(c *gin.Context) (*models.User, bool) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		response.Error(c, response.NewPreconditionFailed("handler ran before authentication"))
		return nil, false
	}
	return principal, true
}

func contextProject(c *gin.Context) (*models.Project, bool) {
	project := middleware.GetProject(c)
	if project == nil {
		response.Error(c, response.NewPreconditionFailed("handler ran before membership check"))
		return nil, false
	}
	return project, true
}

func contextMembership(c *gin.Context) (*models.ProjectMembership, bool) {
	membership := middleware.GetMembership(c)
	if membership == nil {
		response.Error(c, response.NewPreconditionFailed("handler ran before membership check"))
		return nil, false
	}
	return membership, true
}
