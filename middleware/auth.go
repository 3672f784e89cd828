package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"document-portal-gateway/models"
	"document-portal-gateway/services"
)

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// AuthMiddleware resolves the session bearer token and attaches the session
// and its identity to the request context. Clients hold only the gateway
// session id; the upstream access token never reaches them.
func AuthMiddleware(gate *services.SessionGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		sessionID := strings.TrimPrefix(authHeader, "Bearer ")
		if sessionID == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		session, err := gate.Resolve(sessionID)
		if err != nil {
			if errors.Is(err, services.ErrSessionNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Session lookup failed"})
			}
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Set(identityKey, session.Identity())

		c.Next()
	}
}

// RequireRole checks if the session identity has a specific role.
func RequireRole(gate *services.SessionGate, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if !gate.Authorize(&identity, role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session attached by AuthMiddleware.
func SessionFrom(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(*models.Session); ok {
			return session
		}
	}
	return nil
}

// IdentityFrom returns the identity attached by AuthMiddleware.
func IdentityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

// TokenFrom returns the upstream access token of the current session.
func TokenFrom(c *gin.Context) string {
	if session := SessionFrom(c); session != nil {
		return session.AccessToken
	}
	return ""
}
