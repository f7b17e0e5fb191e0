// api/middleware/auth_middleware.go
package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/auth"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID   = "userId"
	ContextUsername = "username"
)

// AuthMiddleware checks the bearer token on every request of the group.
// Failures are attached to the context and rendered by ErrorHandler.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(auth.ErrTokenMissing)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = c.Error(fmt.Errorf("%w: authorization header format must be Bearer {token}", auth.ErrTokenMalformed))
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(strings.TrimSpace(parts[1]), cfg.JWTSecret)
		if err != nil {
			customLog.Printf("AuthMiddleware: Token validation failed: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}
