package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Authorizer decides whether a role may perform an action on an object.
type Authorizer interface {
	Check(ctx context.Context, role, object, action string) (bool, error)
}

// RequireAccess rejects requests whose role may not perform action on object.
// It must run after JWTAuthMiddleware.
func RequireAccess(authorizer Authorizer, object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := authorizer.Check(c.Request.Context(), c.GetString(UserRoleKey), object, action)
		if err != nil {
			Logger(c).WithError(err).Error("access check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check permissions", "code": "PERSISTENCE_FAILURE"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You don't have permission to " + action + " " + object, "code": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}
