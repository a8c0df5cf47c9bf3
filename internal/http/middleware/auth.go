package middleware

import (
	"net/http"
	"strings"

	"busbooking/internal/domain/models"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// RequireAuth verifies the bearer token and stores userID and userRole on the context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		caller, err := services.ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set(userIDKey, caller.UserID)
		c.Set(userRoleKey, string(caller.Role))
		c.Next()
	}
}

// CallerFrom returns the authenticated caller. ok is false outside RequireAuth.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return services.Caller{}, false
	}
	uid, ok := id.(int64)
	if !ok || uid <= 0 {
		return services.Caller{}, false
	}
	return services.Caller{UserID: uid, Role: models.Actor(c.GetString(userRoleKey))}, true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}
