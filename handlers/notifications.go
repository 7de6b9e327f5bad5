package handlers

import (
	"net/http"

	"vehicle-vault-api/middleware"
	"vehicle-vault-api/models"
	"vehicle-vault-api/services"
	"vehicle-vault-api/statemachine"

	"github.com/gin-gonic/gin"
)

type ScheduleTestDriveRequest struct {
	CarID  uint   `json:"carId" binding:"required"`
	Date   string `json:"date" binding:"required,datetime=2006-01-02"`
	Time   string `json:"time" binding:"required,datetime=15:04"`
	UserID *uint  `json:"userId"`
}

// ScheduleTestDrive asks the car's owner for a test drive
func (h *Handler) ScheduleTestDrive(c *gin.Context) {
	var req ScheduleTestDriveRequest
	if !bind(c, &req) || !requireSelf(c, req.UserID) {
		return
	}

	n, err := h.Notifications.ScheduleTestDrive(c.Request.Context(), services.TestDriveRequest{
		CarID:       req.CarID,
		RequesterID: middleware.GetUserID(c),
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		respondError(c, "schedule test drive", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":        "Test drive scheduled successfully",
		"notificationId": n.ID,
	})
}

// selfParam reads a :userId path parameter that must name the caller.
func selfParam(c *gin.Context) (uint, bool) {
	id, ok := parseID(c, "userId")
	if !ok || !requireSelf(c, &id) {
		return 0, false
	}
	return id, true
}

// ListNotifications returns the caller's notifications, newest first
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := selfParam(c)
	if !ok {
		return
	}
	notifications, err := h.Notifications.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "list notifications", err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	userID, ok := selfParam(c)
	if !ok {
		return
	}
	count, err := h.Notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "unread count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type RespondRequest struct {
	Status      string `json:"status" binding:"required"`
	ResponderID *uint  `json:"responderId"`
}

// RespondToNotification accepts or declines a pending test drive request
func (h *Handler) RespondToNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RespondRequest
	if !bind(c, &req) || !requireSelf(c, req.ResponderID) {
		return
	}

	res, err := h.Notifications.Respond(c.Request.Context(), id, models.NotificationStatus(req.Status), middleware.GetUserID(c))
	if err != nil {
		respondError(c, "respond to notification", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Response recorded successfully",
		"status":       res.Notification.Status,
		"notification": res.Notification,
	})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, "mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// GetStateMachineInfo documents the test drive request lifecycle
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": statemachine.TerminalStates(),
		"description":     "Test drive request lifecycle. isRead changes independently of status.",
	})
}
