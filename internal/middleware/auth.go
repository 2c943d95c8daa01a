package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/larisin-live/backend/internal/auth"
	"github.com/larisin-live/backend/pkg/response"
)

const (
	// ContextOpenID is the key for the operator's platform id in gin context.
	ContextOpenID = "open_id"
	// ContextDisplayName is the key for the operator's display name in gin context.
	ContextDisplayName = "display_name"
)

// SessionAuth returns a middleware that validates the studio session
// token and sets the operator claims in context.
func SessionAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextOpenID, claims.OpenID)
		c.Set(ContextDisplayName, claims.DisplayName)
		c.Next()
	}
}
