package handlers

import (
	"net/http"

	"vehicle-vault-api/middleware"

	"github.com/gin-gonic/gin"
)

type SendMessageRequest struct {
	SenderID   *uint  `json:"senderId"`
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Subject    string `json:"subject"`
	Content    string `json:"content" binding:"required"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !bind(c, &req) || !requireSelf(c, req.SenderID) {
		return
	}

	msg, err := h.Messages.Send(c.Request.Context(), middleware.GetUserID(c), req.ReceiverID, req.Subject, req.Content)
	if err != nil {
		respondError(c, "send message", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Message sent successfully",
		"messageId": msg.ID,
	})
}

// ListMessages returns the caller's conversations, most recent first
func (h *Handler) ListMessages(c *gin.Context) {
	userID, ok := selfParam(c)
	if !ok {
		return
	}
	conversations, err := h.Messages.Conversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *Handler) MarkMessageRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Messages.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, "mark message read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}
