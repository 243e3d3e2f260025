package handlers

import (
	"net/http"

	"taskdesk-api/internal/middleware"
	"taskdesk-api/internal/models"

	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Me returns the authenticated user
// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	u, err := h.users.Me(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "")
}

// GetUser returns one user
// GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "")
}

// UpdateProfile changes the name and email of the authenticated user
// PUT /api/users/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), middleware.Principal(c), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "Profile updated")
}

// ChangePassword
// PUT /api/users/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middleware.Principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Password updated")
}

// ListUsers returns all users (admin)
// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), middleware.Principal(c))
	h.respondUsers(c, users, err)
}

// ListTaskAssignees returns the users an admin can assign tasks to
// GET /api/tasks/users
func (h *Handler) ListTaskAssignees(c *gin.Context) {
	users, err := h.users.Assignable(c.Request.Context(), middleware.Principal(c), models.RoleUser)
	h.respondUsers(c, users, err)
}

// ListQueryAssignees returns the admins a query can be assigned to
// GET /api/queries/users
func (h *Handler) ListQueryAssignees(c *gin.Context) {
	users, err := h.users.Assignable(c.Request.Context(), middleware.Principal(c), models.RoleAdmin)
	h.respondUsers(c, users, err)
}

func (h *Handler) respondUsers(c *gin.Context, users []models.User, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"count":   len(users),
	})
}
