package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of every error body.
const (
	CodeValidation           = "validation_error"
	CodeDuplicateEmail       = "duplicate_email"
	CodeInvalidStatus        = "invalid_status"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeConflict             = "conflict"
	CodePayloadTooLarge      = "payload_too_large"
	CodeRateLimited          = "rate_limited"
	CodeUpstream             = "upstream_error"
	CodeAssistantUnavailable = "assistant_unavailable"
	CodeInternal             = "internal_error"
)

// Fail aborts the request with the standard error body.
func Fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// FailInternal hides the cause and hands back the request id for support.
func FailInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"code":      CodeInternal,
		"requestId": GetRequestID(c),
	})
}
