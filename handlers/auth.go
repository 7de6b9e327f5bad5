package handlers

import (
	"net/http"

	"vehicle-vault-api/middleware"
	"vehicle-vault-api/models"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account and signs it in
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.Users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, "register", err)
		return
	}
	token, err := h.Tokens.Issue(user)
	if err != nil {
		respondError(c, "issue token", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    user.Public(),
	})
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	token, err := h.Tokens.Issue(user)
	if err != nil {
		respondError(c, "issue token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Public(),
	})
}

// Logout revokes the token used for this request
func (h *Handler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		middleware.Fail(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "Not signed in")
		return
	}
	if err := h.Tokens.Revoke(c.Request.Context(), claims); err != nil {
		respondError(c, "revoke token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		user = &models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
