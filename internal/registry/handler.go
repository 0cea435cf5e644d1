package registry

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/pkg/response"
)

// SubmitRequest is the body for POST /submit. JSON and form encodings are
// both accepted because the public site posts whichever the browser builds.
type SubmitRequest struct {
	FullName       string `json:"full_name" form:"full_name"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	Community      string `json:"community" form:"community"`
	LGAOrigin      string `json:"lga_origin" form:"lga_origin"`
	AgeRange       string `json:"age_range" form:"age_range"`
	Occupation     string `json:"occupation" form:"occupation"`
	Reason         string `json:"reason" form:"reason"`
	AttendanceMode string `json:"attendance_mode" form:"attendance_mode"`
}

// Handler handles the public registration endpoint.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a registration handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Submit handles POST /submit. Always answers 200; the outcome rides in the
// success flag.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Message(c, false, "invalid request body")
		return
	}

	reg, err := h.service.Submit(c.Request.Context(), Submission{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Community:      req.Community,
		LGAOrigin:      req.LGAOrigin,
		AgeRange:       req.AgeRange,
		Occupation:     req.Occupation,
		Reason:         req.Reason,
		AttendanceMode: req.AttendanceMode,
	})
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			response.Message(c, false, ve.Error())
		case errors.Is(err, ErrDuplicateEmail):
			response.Message(c, false, "This email is already registered.")
		case errors.Is(err, ErrUnknownLGA):
			response.Message(c, false, "Unrecognized LGA of origin.")
		default:
			h.logger.Error("submit failed", zap.Error(err))
			response.Message(c, false, "Registration failed. Please try again later.")
		}
		return
	}

	response.Plain(c, gin.H{
		"success":      true,
		"message":      "Registration received. A confirmation email is on its way.",
		"submitted_at": reg.SubmittedAt,
	})
}
