package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jamin-backend/internal/shared/response"
	"jamin-backend/pkg/jwt"
)

// AuthMiddleware - Middleware xác thực JWT token.
// Unauthenticated submissions are rejected outright: there is no fallback
// placeholder identity for mutating routes.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		// 2. Extract token từ "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		// 3. Verify và parse JWT
		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		// 4. Convert string sang uuid.UUID
		memberID, err := uuid.Parse(claims.MemberID)
		if err != nil {
			response.Unauthorized(c, "invalid member ID in token")
			c.Abort()
			return
		}

		// 5. Set identity vào context
		c.Set("memberID", memberID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// MemberIDFromContext reads the authenticated member id set by AuthMiddleware
func MemberIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get("memberID")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	return id, ok
}
