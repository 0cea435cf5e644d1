package sessions

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/pkg/response"
)

// Handler exposes the single-endpoint auth surface the dashboard talks to.
// Every reply is HTTP 200; outcomes ride in the body.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// AuthRequest is the action envelope for POST /auth.
type AuthRequest struct {
	Action   string `json:"action" form:"action"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Token    string `json:"token" form:"token"`
}

// Dispatch routes POST /auth by the action field.
func (h *Handler) Dispatch(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Message(c, false, "Invalid request body.")
		return
	}

	switch req.Action {
	case "login":
		h.login(c, req)
	case "validateToken":
		h.validateToken(c, req)
	case "logout":
		h.logout(c, req)
	case "getUserInfo":
		h.userInfo(c, req)
	default:
		response.Message(c, false, "Unknown action.")
	}
}

func (h *Handler) login(c *gin.Context, req AuthRequest) {
	sess, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Message(c, false, "Invalid username or password.")
		case errors.Is(err, ErrInactiveAccount):
			response.Message(c, false, "This account is inactive.")
		default:
			h.logger.Error("login failed", zap.Error(err))
			response.Message(c, false, "Login failed. Please try again.")
		}
		return
	}
	response.Plain(c, gin.H{
		"success":    true,
		"token":      sess.Token,
		"username":   sess.Username,
		"expires_at": sess.ExpiresAt,
	})
}

func (h *Handler) validateToken(c *gin.Context, req AuthRequest) {
	sess, err := h.service.Validate(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			response.Plain(c, gin.H{"valid": false, "message": "Invalid token."})
		case errors.Is(err, ErrTokenExpired):
			response.Plain(c, gin.H{"valid": false, "message": "Token expired."})
		default:
			h.logger.Error("token validation failed", zap.Error(err))
			response.Plain(c, gin.H{"valid": false, "message": "Validation failed. Please try again."})
		}
		return
	}
	response.Plain(c, gin.H{"valid": true, "username": sess.Username})
}

func (h *Handler) logout(c *gin.Context, req AuthRequest) {
	if err := h.service.Logout(c.Request.Context(), req.Token); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		response.Message(c, false, "Logout failed. Please try again.")
		return
	}
	response.Plain(c, gin.H{"success": true, "message": "Logged out."})
}

// Sweep handles POST /admin/sessions/sweep, clearing expired rows on demand
// instead of waiting for the background ticker.
func (h *Handler) Sweep(c *gin.Context) {
	removed, err := h.service.SweepExpired(c.Request.Context())
	if err != nil {
		h.logger.Error("session sweep failed", zap.Error(err))
		response.Internal(c, "session sweep failed")
		return
	}
	response.OK(c, gin.H{"removed": removed})
}

func (h *Handler) userInfo(c *gin.Context, req AuthRequest) {
	u, err := h.service.UserInfo(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			response.Message(c, false, "Invalid token.")
		case errors.Is(err, ErrTokenExpired):
			response.Message(c, false, "Token expired.")
		case errors.Is(err, ErrUserNotFound):
			response.Message(c, false, "User not found.")
		default:
			h.logger.Error("user info lookup failed", zap.Error(err))
			response.Message(c, false, "Lookup failed. Please try again.")
		}
		return
	}
	response.Plain(c, gin.H{
		"success":  true,
		"username": u.Username,
		"status":   u.Status,
	})
}
