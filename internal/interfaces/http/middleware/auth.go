// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/pkg/auth"
)

const (
	identityKey     = "identity"
	sessionHeader   = "X-Session-ID"
	authorizationHd = "Authorization"
	bearerPrefix    = "Bearer "
)

// RequireAuth validates the JWT bearer token and stores the caller identity.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtManager)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Set(identityKey, identity.ForUser(claims.UserID, claims.IsAdmin))
		c.Next()
	}
}

// RequireAdmin validates the token and rejects non-administrators.
func RequireAdmin(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtManager)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		if !claims.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator access required"})
			c.Abort()
			return
		}
		c.Set(identityKey, identity.ForUser(claims.UserID, true))
		c.Next()
	}
}

// OptionalAuth resolves an identity from a bearer token when present, or an
// anonymous session header otherwise. Cart endpoints accept both.
func OptionalAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, jwtManager); ok {
			c.Set(identityKey, identity.ForUser(claims.UserID, claims.IsAdmin))
			c.Next()
			return
		}
		if sessionID := c.GetHeader(sessionHeader); sessionID != "" {
			c.Set(identityKey, identity.ForSession(sessionID))
			c.Next()
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication or session id required"})
		c.Abort()
	}
}

// GetIdentity returns the identity stored by the auth middleware.
func GetIdentity(c *gin.Context) (identity.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return identity.Identity{}, false
	}
	ident, ok := value.(identity.Identity)
	return ident, ok
}

func parseBearer(c *gin.Context, jwtManager *auth.JWTManager) (*auth.Claims, bool) {
	header := c.GetHeader(authorizationHd)
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, false
	}
	claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return nil, false
	}
	return claims, true
}
