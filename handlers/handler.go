// Package handlers binds HTTP requests to the marketplace services.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"vehicle-vault-api/assistant"
	"vehicle-vault-api/middleware"
	"vehicle-vault-api/realtime"
	"vehicle-vault-api/services"
	"vehicle-vault-api/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handler carries the services every endpoint needs.
type Handler struct {
	Users         *services.UserService
	Cars          *services.CarService
	Notifications *services.NotificationService
	Messages      *services.MessageService
	Assistant     *assistant.Service
	Tokens        *session.Manager
	Hub           *realtime.Hub
}

// respondError maps a service error onto the closed set of API error codes.
// Anything unrecognised is logged with the request id and reported as 500.
func respondError(c *gin.Context, op string, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, describeValidation(verrs))
	case errors.Is(err, services.ErrDuplicateEmail):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeDuplicateEmail, "Email already registered")
	case errors.Is(err, services.ErrValidation), errors.Is(err, assistant.ErrInvalidInput):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeInvalidStatus, "Invalid status. Must be accepted or declined")
	case errors.Is(err, services.ErrInvalidCredentials):
		middleware.Fail(c, http.StatusUnauthorized, middleware.CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, services.ErrForbidden):
		middleware.Fail(c, http.StatusForbidden, middleware.CodeForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		middleware.Fail(c, http.StatusNotFound, middleware.CodeNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		middleware.Fail(c, http.StatusConflict, middleware.CodeConflict, err.Error())
	case errors.Is(err, assistant.ErrNotConfigured):
		middleware.Fail(c, http.StatusServiceUnavailable, middleware.CodeAssistantUnavailable, "Assistant is not available right now")
	case errors.Is(err, assistant.ErrUpstream):
		log.Printf("[%s] %s: %v", middleware.GetRequestID(c), op, err)
		middleware.Fail(c, http.StatusBadGateway, middleware.CodeUpstream, "Assistant failed to respond, please try again")
	default:
		log.Printf("[%s] %s: %v", middleware.GetRequestID(c), op, err)
		middleware.FailInternal(c)
	}
}

// bind decodes the JSON body into req and answers 400/413 itself on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// requireSelf rejects bodies or paths naming a user other than the caller.
func requireSelf(c *gin.Context, claimed *uint) bool {
	if claimed != nil && *claimed != middleware.GetUserID(c) {
		middleware.Fail(c, http.StatusForbidden, middleware.CodeForbidden, "userId does not match the authenticated user")
		return false
	}
	return true
}

func actor(c *gin.Context) services.Actor {
	a := services.Actor{UserID: middleware.GetUserID(c)}
	if u := middleware.GetUser(c); u != nil {
		a.IsAdmin = u.IsAdmin
	}
	return a
}
