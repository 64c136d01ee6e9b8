package middleware

import (
	"carrental-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const RoleAdmin = "admin"

// AdminMiddleware checks if user has admin role
// Must run after AuthMiddleware
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			response.Forbidden(c, "Access denied: admin role required")
			return
		}

		if r, isString := role.(string); !isString || r != RoleAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			return
		}

		c.Next()
	}
}
