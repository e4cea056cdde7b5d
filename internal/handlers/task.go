package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(project.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(project.ID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) Create(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	principal, ok := contextPrincipal(c)
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(project.ID, &req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
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

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(project.ID, taskID, &req, membership)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	if err := h.taskService.Delete(project.ID, taskID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// pathID parses a numeric path parameter, replying InvalidArgument on a
// malformed value.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
