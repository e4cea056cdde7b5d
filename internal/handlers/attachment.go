package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

func (h *AttachmentHandler) List(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.List(project.ID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, attachments)
}

// Upload accepts a multipart form with a "file" field.
func (h *AttachmentHandler) Upload(c *gin.Context) {
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

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field is required")
		return
	}

	attachment, err := h.attachmentService.Upload(project.ID, taskID, fh, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// Download streams the stored file under its original name.
func (h *AttachmentHandler) Download(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachmentID")
	if !ok {
		return
	}

	attachment, path, err := h.attachmentService.Get(project.ID, taskID, attachmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, attachment.FileName)
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachmentID")
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(project.ID, taskID, attachmentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
