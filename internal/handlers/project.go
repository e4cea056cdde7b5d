package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// List returns the projects visible to the principal.
func (h *ProjectHandler) List(c *gin.Context) {
	principal, ok := contextPrincipal(c)
	if !ok {
		return
	}

	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.projectService.List(&req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetByID returns the project already resolved by the membership guard.
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	loaded, err := h.projectService.GetByID(project.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, loaded)
}

// Create creates a project together with the creator's admin membership.
func (h *ProjectHandler) Create(c *gin.Context) {
	principal, ok := contextPrincipal(c)
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update mutates name/description under optimistic locking.
func (h *ProjectHandler) Update(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.projectService.Update(project.ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete cascade-deletes the project and everything it owns.
func (h *ProjectHandler) Delete(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(project.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
