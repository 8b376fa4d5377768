package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/models"
)

const (
	emailKey   = "email"
	isAdminKey = "isAdmin"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RoleLookup reads a user's current role from storage.
type RoleLookup interface {
	Role(ctx context.Context, email string) (string, error)
}

// VerifyToken rejects requests without a valid bearer token and exposes the
// token's email to later handlers.
func VerifyToken(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized!"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized!"})
			return
		}
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// VerifyAdmin lets the request through only when the token's user currently
// has the admin role. The role is read on every request, so demotions take
// effect immediately.
func VerifyAdmin(roles RoleLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := IsAdmin(c, roles)
		if err != nil {
			log.Error("admin role lookup failed", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}
		if !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden!"})
			return
		}
		c.Next()
	}
}

// IsAdmin reports whether the authenticated user is an admin. The answer is
// memoized on the request.
func IsAdmin(c *gin.Context, roles RoleLookup) (bool, error) {
	if v, ok := c.Get(isAdminKey); ok {
		return v.(bool), nil
	}
	email := Email(c)
	if email == "" {
		return false, nil
	}
	role, err := roles.Role(c.Request.Context(), email)
	if err != nil {
		return false, err
	}
	admin := role == models.RoleAdmin
	c.Set(isAdminKey, admin)
	return admin, nil
}

// Email returns the email of the authenticated caller.
func Email(c *gin.Context) string {
	return c.GetString(emailKey)
}
