package handlers

import (
	"net/http"

	"vehicle-vault-api/assistant"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat answers a question about cars and the current inventory
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if !bind(c, &req) {
		return
	}
	reply, err := h.Assistant.Chat(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, "chatbot", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type TradeInRequest struct {
	Message          string              `json:"message" binding:"required"`
	TargetCarPrice   numeric             `json:"targetCarPrice" binding:"gte=0"`
	PreviousMessages []assistant.Message `json:"previousMessages" binding:"max=40,dive"`
}

// TradeInEstimate continues a trade-in conversation held by the client
func (h *Handler) TradeInEstimate(c *gin.Context) {
	var req TradeInRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.Assistant.TradeIn(c.Request.Context(), assistant.TradeInRequest{
		Message:        req.Message,
		TargetCarPrice: float64(req.TargetCarPrice),
		History:        req.PreviousMessages,
	})
	if err != nil {
		respondError(c, "trade-in estimate", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
