package notify

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/response"
)

// Handler exposes the email log admin endpoints.
type Handler struct {
	logs     store.EmailLogs
	pending  store.Registrants
	verified store.Verified
	notifier Notifier
}

// NewHandler creates an email logs handler.
func NewHandler(logs store.EmailLogs, pending store.Registrants, verified store.Verified, notifier Notifier) *Handler {
	return &Handler{logs: logs, pending: pending, verified: verified, notifier: notifier}
}

// ListRecent handles GET /admin/emails. Returns the newest delivery attempts.
func (h *Handler) ListRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		response.BadRequest(c, "invalid limit")
		return
	}
	logs, err := h.logs.EmailLogs(c.Request.Context(), limit)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// Resend handles POST /admin/emails/:id/resend. Rebuilds the original message
// from the current table state and delivers it again.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	ctx := c.Request.Context()
	entry, err := h.logs.EmailLogByID(ctx, id)
	if err != nil {
		response.NotFound(c, "email log not found")
		return
	}

	var msg Message
	switch Kind(entry.Kind) {
	case KindAttendanceCode:
		v, err := h.verified.VerifiedByEmail(ctx, entry.Recipient)
		if err != nil {
			response.NotFound(c, "no verified attendee for recipient")
			return
		}
		msg = Message{Kind: KindAttendanceCode, Recipient: v.Email, FullName: v.FullName, LGA: v.LGAOrigin, Code: v.Code}
	case KindRegistrationReceived:
		r, err := h.pending.RegistrantByEmail(ctx, entry.Recipient)
		if err != nil {
			response.NotFound(c, "no pending registrant for recipient")
			return
		}
		msg = Message{Kind: KindRegistrationReceived, Recipient: r.Email, FullName: r.FullName, LGA: r.LGAOrigin}
	default:
		response.BadRequest(c, "unknown email kind")
		return
	}

	if err := h.notifier.Send(ctx, msg); err != nil {
		response.ServiceUnavailable(c, "failed to resend email")
		return
	}
	response.OK(c, gin.H{"message": "resent", "recipient": msg.Recipient})
}
