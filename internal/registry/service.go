// Package registry takes summit registrations: it validates submissions,
// enforces one registration per email, and fans each accepted submission out
// to the pending pool and its LGA review queue.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/emailaddr"
)

var (
	// ErrDuplicateEmail rejects a submission whose email is already pending
	// or already verified.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUnknownLGA rejects a submission naming an LGA outside the
	// configured set.
	ErrUnknownLGA = errors.New("unknown lga")
)

// ValidationError reports the first submission field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Store is the slice of persistence the workflow needs.
type Store interface {
	store.Intake
	store.Registrants
	store.Verified
}

// Submission carries the raw form fields of one registration attempt.
type Submission struct {
	FullName       string
	Email          string
	Phone          string
	Community      string
	LGAOrigin      string
	AgeRange       string
	Occupation     string
	Reason         string
	AttendanceMode string
}

// Service implements the registration workflow.
type Service struct {
	store    Store
	notifier notify.Notifier
	clock    clock.Clock
	lgas     map[string]string
	logger   *zap.Logger
}

// NewService wires the workflow. lgas is the accepted LGA set; matching is
// case-insensitive and the configured casing is what gets stored.
func NewService(st Store, notifier notify.Notifier, clk clock.Clock, lgas []string, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[string]string, len(lgas))
	for _, lga := range lgas {
		if t := strings.TrimSpace(lga); t != "" {
			set[strings.ToLower(t)] = t
		}
	}
	return &Service{store: st, notifier: notifier, clock: clk, lgas: set, logger: logger}
}

// LGAs returns the configured LGA names in no particular order.
func (s *Service) LGAs() []string {
	out := make([]string, 0, len(s.lgas))
	for _, lga := range s.lgas {
		out = append(out, lga)
	}
	return out
}

// CanonicalLGA resolves an LGA name case-insensitively to its configured
// casing.
func (s *Service) CanonicalLGA(lga string) (string, bool) {
	canon, ok := s.lgas[strings.ToLower(strings.TrimSpace(lga))]
	return canon, ok
}

// Submit validates and lands one registration. On success the registrant sits
// in the pending pool, a mirrored entry sits in the LGA review queue, and a
// confirmation email is on its way. A failed confirmation email never fails
// the submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.Registrant, error) {
	sub.Email = emailaddr.Normalize(sub.Email)
	sub.FullName = strings.TrimSpace(sub.FullName)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Community = strings.TrimSpace(sub.Community)
	sub.LGAOrigin = strings.TrimSpace(sub.LGAOrigin)
	sub.AgeRange = strings.TrimSpace(sub.AgeRange)
	sub.Occupation = strings.TrimSpace(sub.Occupation)
	sub.Reason = strings.TrimSpace(sub.Reason)
	sub.AttendanceMode = strings.TrimSpace(sub.AttendanceMode)

	if err := validate(sub); err != nil {
		return nil, err
	}
	canon, ok := s.CanonicalLGA(sub.LGAOrigin)
	if !ok {
		return nil, ErrUnknownLGA
	}

	if err := s.checkDuplicate(ctx, sub.Email); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	registrant := &models.Registrant{
		Email:          sub.Email,
		FullName:       sub.FullName,
		Phone:          sub.Phone,
		Community:      sub.Community,
		LGAOrigin:      canon,
		AgeRange:       sub.AgeRange,
		Occupation:     sub.Occupation,
		Reason:         sub.Reason,
		AttendanceMode: sub.AttendanceMode,
		Status:         models.RegistrantStatusPending,
		SubmittedAt:    now,
	}
	entry := &models.ReviewEntry{
		LGA:            canon,
		Email:          sub.Email,
		FullName:       sub.FullName,
		Phone:          sub.Phone,
		Community:      sub.Community,
		AgeRange:       sub.AgeRange,
		Occupation:     sub.Occupation,
		Reason:         sub.Reason,
		AttendanceMode: sub.AttendanceMode,
		Status:         models.RegistrantStatusPending,
		SubmittedAt:    now,
	}
	if err := s.store.AppendSubmission(ctx, registrant, entry); err != nil {
		return nil, fmt.Errorf("append submission: %w", err)
	}

	if err := s.notifier.Send(ctx, notify.Message{
		Kind:      notify.KindRegistrationReceived,
		Recipient: registrant.Email,
		FullName:  registrant.FullName,
		LGA:       registrant.LGAOrigin,
	}); err != nil {
		s.logger.Warn("registration notice failed",
			zap.String("email", registrant.Email), zap.Error(err))
	}

	s.logger.Info("registration received",
		zap.String("email", registrant.Email), zap.String("lga", canon))
	return registrant, nil
}

func (s *Service) checkDuplicate(ctx context.Context, email string) error {
	if _, err := s.store.RegistrantByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("pending lookup: %w", err)
	}
	if _, err := s.store.VerifiedByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("verified lookup: %w", err)
	}
	return nil
}

func validate(sub Submission) error {
	required := []struct {
		field, value string
	}{
		{"full_name", sub.FullName},
		{"email", sub.Email},
		{"phone", sub.Phone},
		{"community", sub.Community},
		{"lga_origin", sub.LGAOrigin},
		{"age_range", sub.AgeRange},
		{"occupation", sub.Occupation},
		{"reason", sub.Reason},
		{"attendance_mode", sub.AttendanceMode},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	if !emailaddr.Valid(sub.Email) {
		return &ValidationError{Field: "email", Reason: "invalid format"}
	}
	return nil
}
