package selection

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/pkg/response"
)

// ApproveRequest is the body for POST /approve. The timestamp names the
// submission the caller means; it may drift up to the approval window from
// the stored value.
type ApproveRequest struct {
	LGA       string    `json:"lga" form:"lga"`
	Email     string    `json:"email" form:"email"`
	Timestamp time.Time `json:"timestamp" form:"timestamp" time_format:"2006-01-02T15:04:05Z07:00"`
	Code      string    `json:"code" form:"code"`
}

// Handler handles the approval endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a selection handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Approve handles POST /approve. Always answers 200; the outcome rides in
// the success flag.
func (h *Handler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Message(c, false, "invalid request body")
		return
	}
	if req.LGA == "" || req.Email == "" || req.Timestamp.IsZero() {
		response.Message(c, false, "lga, email and timestamp are required")
		return
	}

	code, err := h.service.Approve(c.Request.Context(), req.LGA, req.Email, req.Timestamp, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Message(c, false, "No matching registration found.")
		case errors.Is(err, ErrAlreadyApproved):
			response.Message(c, false, "This registration is already approved.")
		case errors.Is(err, ErrAlreadyVerified):
			response.Message(c, false, "This email already holds an attendance code.")
		case errors.Is(err, ErrInvalidCode):
			response.Message(c, false, "Code must be a four digit number.")
		case errors.Is(err, ErrCodeTaken):
			response.Message(c, false, "That code is already issued to another attendee.")
		case errors.Is(err, ErrNotifier):
			response.Message(c, false, "Could not deliver the attendance code. Nothing was changed; try again.")
		case errors.Is(err, ErrInconsistent):
			h.logger.Error("approval bookkeeping incomplete", zap.String("email", req.Email), zap.Error(err))
			response.Message(c, false, "Code was delivered but bookkeeping failed; run reconcile before retrying.")
		default:
			h.logger.Error("approve failed", zap.String("email", req.Email), zap.Error(err))
			response.Message(c, false, "Approval failed. Please try again later.")
		}
		return
	}

	response.Plain(c, gin.H{
		"success": true,
		"message": "Approved. Attendance code sent.",
		"code":    code,
	})
}

// ReviewUpdateRequest carries a reviewer's edit to one queue entry. An
// omitted field leaves its column untouched; an explicit empty string
// clears it.
type ReviewUpdateRequest struct {
	Status         *string `json:"status"`
	ApprovalStatus *string `json:"approval_status"`
}

// UpdateReview handles PATCH /admin/reviews/:id, the edit surface for
// reviewers who screen the queue through the dashboard.
func (h *Handler) UpdateReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid review entry id")
		return
	}

	var req ReviewUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Status == nil && req.ApprovalStatus == nil {
		response.BadRequest(c, "nothing to update")
		return
	}

	entry, err := h.service.UpdateReviewEntry(c.Request.Context(), id, req.Status, req.ApprovalStatus)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "review entry not found")
			return
		}
		h.logger.Error("review update failed", zap.String("id", id.String()), zap.Error(err))
		response.Internal(c, "could not update review entry")
		return
	}
	response.OK(c, entry)
}

// RunSelection handles POST /admin/selection/run. Sweeps the review queue.
func (h *Handler) RunSelection(c *gin.Context) {
	res, err := h.service.RunSelection(c.Request.Context())
	if err != nil {
		h.logger.Error("selection sweep halted", zap.Error(err))
		if errors.Is(err, ErrNotifier) {
			response.ServiceUnavailable(c, "sweep halted: attendance code delivery failed")
			return
		}
		response.Internal(c, "selection sweep failed")
		return
	}
	response.OK(c, res)
}

// Reconcile handles POST /admin/selection/reconcile. Clears pending rows
// already represented in the verified pool.
func (h *Handler) Reconcile(c *gin.Context) {
	removed, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		h.logger.Error("reconcile failed", zap.Error(err))
		response.Internal(c, "reconcile failed")
		return
	}
	response.OK(c, gin.H{"removed": removed})
}
