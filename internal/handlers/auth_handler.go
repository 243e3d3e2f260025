package handlers

import (
	"net/http"

	"taskdesk-api/internal/middleware"
	"taskdesk-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a user account and signs it in
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	sess, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, sess, "Registration successful")
}

// Login handles the login endpoint
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	sess, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, sess, "Login successful")
}

// Logout revokes the token the request was made with
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	h.users.Logout(middleware.Claims(c))
	respond(c, http.StatusOK, nil, "Logged out")
}
