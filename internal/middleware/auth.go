package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/summitdesk/backend/internal/sessions"
	"github.com/summitdesk/backend/pkg/response"
)

const (
	// ContextUsername is the key for the authenticated username in gin context.
	ContextUsername = "username"
	// ContextSessionToken is the key for the session token in gin context.
	ContextSessionToken = "session_token"
)

// SessionAuth returns a middleware that resolves the bearer token to a live
// session and sets the username in context. Expired tokens read as
// unauthorized; the stale session row is deleted during validation.
func SessionAuth(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing session token")
			c.Abort()
			return
		}
		sess, err := svc.Validate(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}
		c.Set(ContextUsername, sess.Username)
		c.Set(ContextSessionToken, sess.Token)
		c.Next()
	}
}

// bearerToken pulls the session token from the Authorization header, falling
// back to the token query parameter the dashboard sends on GET requests.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(c.Query("token"))
}
