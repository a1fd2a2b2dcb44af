package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-authlink/authlink/internal/token"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	ContextAccountID   = "account_id"
	ContextUsername    = "username"
	ContextAuthorities = "authorities"
	ContextAccessToken = "access_token"
)

// BearerToken extracts the bearer token from the Authorization header, or ""
// if none is present.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth validates the caller's access token and stores its claims in
// the context. Every verification failure produces the same 401 response;
// the specific failure kind is only logged.
func RequireAuth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := tokens.VerifyAccessToken(raw)
		if err != nil {
			log.Printf("[Auth] Rejected access token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ContextAccountID, claims.AccountID)
		c.Set(ContextUsername, claims.Subject)
		c.Set(ContextAuthorities, claims.Authorities)
		c.Set(ContextAccessToken, raw)
		c.Next()
	}
}

// RequireAuthority rejects callers whose token does not carry the given
// role. Must run after RequireAuth.
func RequireAuthority(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorities, _ := c.Get(ContextAuthorities)
		roles, ok := authorities.([]string)
		if ok {
			for _, r := range roles {
				if r == role {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// AccountID returns the authenticated account ID set by RequireAuth.
func AccountID(c *gin.Context) string {
	id, _ := c.Get(ContextAccountID)
	s, _ := id.(string)
	return s
}

// IPMiddleware extracts client IP and stores it in the context
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gin's ClientIP() handles X-Forwarded-For and other headers
		c.Set("client_ip", c.ClientIP())
		c.Next()
	}
}
