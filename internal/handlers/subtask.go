package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

type SubtaskHandler struct {
	subtaskService *services.SubtaskService
}

func NewSubtaskHandler(subtaskService *services.SubtaskService) *SubtaskHandler {
	return &SubtaskHandler{subtaskService: subtaskService}
}

func (h *SubtaskHandler) List(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	subtasks, err := h.subtaskService.List(project.ID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, subtasks)
}

func (h *SubtaskHandler) Create(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	principal, ok := contextPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	var req services.CreateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	subtask, err := h.subtaskService.Create(project.ID, taskID, &req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subtask)
}

// Update applies a partial update. The field-level role gate (members may
// only toggle completion) lives in the service.
func (h *SubtaskHandler) Update(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	membership, ok := contextMembership(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	subtaskID, ok := pathID(c, "subtaskID")
	if !ok {
		return
	}

	var req services.UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	subtask, err := h.subtaskService.Update(project.ID, taskID, subtaskID, &req, membership)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, subtask)
}

func (h *SubtaskHandler) Delete(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	subtaskID, ok := pathID(c, "subtaskID")
	if !ok {
		return
	}

	if err := h.subtaskService.Delete(project.ID, taskID, subtaskID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
