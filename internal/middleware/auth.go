package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/auth"
	"github.com/01moynul/quillcraft-golang/internal/entitlement"
)

const (
	UserIDKey    = "userID"
	SessionIDKey = "sessionID"
)

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware creates a gin.HandlerFunc that acts as our "security guard".
// On success it stores the user id in the gin context and attaches the
// session's token counter to the request context.
func AuthMiddleware(tokens TokenValidator, sessions *entitlement.SessionTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// 3. --- Attach session usage ---
		if sessions != nil && claims.SessionID != "" {
			ctx := entitlement.WithSessionUsage(c.Request.Context(), sessions.For(claims.SessionID, claims.ExpiresAt))
			c.Request = c.Request.WithContext(ctx)
		}

		// 4. --- Success ---
		c.Set(UserIDKey, claims.UserID)
		c.Set(SessionIDKey, claims.SessionID)
		c.Next()
	}
}

// UserID reads the id set by AuthMiddleware.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
