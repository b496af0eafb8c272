package middleware

import (
	"errors"
	"net/http"
	"strings"

	"communityhub-backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the access token for the server-rendered admin page,
// where the browser cannot send an Authorization header.
const SessionCookie = "hub_session"

const (
	identityKey = "identity"
	tokenKey    = "token"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthRequired rejects requests without a valid Supabase access token.
func AuthRequired(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		id, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Could not verify token: " + err.Error()})
			return
		}

		c.Set(identityKey, id)
		c.Set(tokenKey, token)
		c.Set("user_id", id.UserID)
		c.Next()
	}
}

// Identity returns the caller set by AuthRequired.
func Identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// Token returns the raw access token set by AuthRequired.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
