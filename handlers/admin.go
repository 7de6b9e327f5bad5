package handlers

import (
	"net/http"

	"vehicle-vault-api/middleware"
	"vehicle-vault-api/models"
	"vehicle-vault-api/services"

	"github.com/gin-gonic/gin"
)

// ListUsers returns every account's public profile
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, "list users", err)
		return
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	c.JSON(http.StatusOK, out)
}

// AdminGetAllUsers returns full account records, admin only
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, "admin list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

type UpdateUserRequest struct {
	Name    *string `json:"name"`
	IsAdmin *bool   `json:"isAdmin"`
}

// UpdateUser renames an account (self or admin) and toggles admin (admin only)
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bind(c, &req) {
		return
	}
	if req.Name == nil && req.IsAdmin == nil {
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, "name or isAdmin is required")
		return
	}

	who := actor(c)
	if req.IsAdmin != nil && !who.IsAdmin {
		middleware.Fail(c, http.StatusForbidden, middleware.CodeForbidden, "Only admins can change admin status")
		return
	}

	ctx := c.Request.Context()
	var (
		user *models.User
		err  error
	)
	if req.Name != nil {
		if user, err = h.Users.UpdateProfile(ctx, who, id, *req.Name); err != nil {
			respondError(c, "update user", err)
			return
		}
	}
	if req.IsAdmin != nil {
		if user, err = h.Users.SetAdmin(ctx, id, *req.IsAdmin); err != nil {
			respondError(c, "set admin", err)
			return
		}
	}
	c.JSON(http.StatusOK, user.Public())
}

// DeleteUser removes an account and everything it owns. Admins may delete
// anyone, other users only themselves.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !actor(c).CanManage(id) {
		respondError(c, "delete user", services.ErrForbidden)
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// SoldCarsCount reports how many of the user's cars are marked sold
func (h *Handler) SoldCarsCount(c *gin.Context) {
	id, ok := parseID(c, "userId")
	if !ok {
		return
	}
	count, err := h.Cars.CountSoldByOwner(c.Request.Context(), id)
	if err != nil {
		respondError(c, "count sold cars", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
