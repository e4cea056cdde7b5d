package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/response"
)

// MemberHandler provides CRUD endpoints for project memberships.
type MemberHandler struct {
	membershipService *services.MembershipService
}

func NewMemberHandler(membershipService *services.MembershipService) *MemberHandler {
	return &MemberHandler{membershipService: membershipService}
}

// List returns all members of the project.
func (h *MemberHandler) List(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	members, err := h.membershipService.List(project.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// Add adds a user to the project with the requested role.
func (h *MemberHandler) Add(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}
	principal, ok := contextPrincipal(c)
	if !ok {
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.membershipService.Add(project.ID, &req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateRole changes a member's project role.
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	memberID, err := strconv.ParseUint(c.Param("memberID"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.membershipService.UpdateRole(project.ID, uint(memberID), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// Remove removes a member from the project. The member's authored records
// stay behind for history.
func (h *MemberHandler) Remove(c *gin.Context) {
	project, ok := contextProject(c)
	if !ok {
		return
	}

	memberID, err := strconv.ParseUint(c.Param("memberID"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	if err := h.membershipService.Remove(project.ID, uint(memberID)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
