package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"vehicle-vault-api/models"
	"vehicle-vault-api/session"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "userID"
	claimsKey = "claims"
	userKey   = "user"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*session.Claims, error)
}

// UserLoader fetches the account behind a token.
type UserLoader interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// AuthRequired validates the bearer token, loads the caller and injects both
// into the context. Tokens of deleted accounts are rejected.
func AuthRequired(tokens TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			Fail(c, http.StatusUnauthorized, CodeUnauthorized, "Authorization header required (Bearer <token>)")
			return
		}
		claims, err := tokens.Verify(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrRevokedToken) {
				Fail(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token")
				return
			}
			log.Printf("[%s] verify token: %v", GetRequestID(c), err)
			FailInternal(c)
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			Fail(c, http.StatusUnauthorized, CodeUnauthorized, "Account no longer exists")
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(claimsKey, claims)
		c.Set(userKey, user)
		c.Next()
	}
}

// AdminRequired lets the request through only when the caller's account is
// currently flagged admin. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil || !user.IsAdmin {
			Fail(c, http.StatusForbidden, CodeForbidden, "Access denied. Admin only")
			return
		}
		c.Next()
	}
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}

// GetUser returns the authenticated account, or nil on public routes.
func GetUser(c *gin.Context) *models.User {
	val, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

func GetClaims(c *gin.Context) *session.Claims {
	val, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := val.(*session.Claims)
	return claims
}
