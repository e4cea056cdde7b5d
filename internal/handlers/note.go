package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) List(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	notes, err := h.noteService.List(project.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notes)
}

func (h *NoteHandler) GetByID(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "noteID")
	if !ok {
		return
	}

	note, err := h.noteService.GetByID(project.ID, noteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Create(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	principal, ok := contextPrincipal(c)
	if !ok {
		return
	}

	var req services.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	note, err := h.noteService.Create(project.ID, &req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

func (h *NoteHandler) Update(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	membership, ok := contextMembership(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "noteID")
	if !ok {
		return
	}

	var req services.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	note, err := h.noteService.Update(project.ID, noteID, &req, membership)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	membership, ok := contextMembership(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "noteID")
	if !ok {
		return
	}

	if err := h.noteService.Delete(project.ID, noteID, membership); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
