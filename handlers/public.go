package handlers

import (
	"net/http"
	"strings"

	"vehicle-vault-api/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "Vehicle Vault API",
		"version":   "1.0.0",
		"assistant": h.Assistant != nil && h.Assistant.Configured(),
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle Vault API Server",
		"docs":    "/api/notifications/state-machine",
		"health":  "/health",
	})
}

// ServeWS opens the live notification socket. Browsers cannot set headers on
// a WebSocket handshake, so the token may also come as ?token=.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		middleware.Fail(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "token is required")
		return
	}
	claims, err := h.Tokens.Verify(c.Request.Context(), token)
	if err != nil {
		middleware.Fail(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "Invalid or expired token")
		return
	}
	if _, err := h.Users.Get(c.Request.Context(), claims.UserID); err != nil {
		middleware.Fail(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "Account no longer exists")
		return
	}
	if err := h.Hub.Serve(c.Writer, c.Request, claims.UserID); err != nil {
		// The upgrader has already written the HTTP error.
		c.Abort()
	}
}
