// Package selection turns reviewer-approved queue entries into verified
// attendees holding one-time attendance codes. It supports both the batch
// sweep over the whole queue and single-entry approval through the API.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/emailaddr"
	"github.com/summitdesk/backend/pkg/random"
)

const (
	codeMin = 1000
	codeMax = 9999

	// ApprovalWindow bounds how far a caller-supplied timestamp may drift
	// from the stored submission time and still match the same entry.
	ApprovalWindow = 60 * time.Second

	// maxCodeDraws bounds the retry loop that keeps issued codes unique.
	maxCodeDraws = 50
)

var (
	// ErrNotFound means no review entry matched the LGA, email and
	// timestamp window.
	ErrNotFound = errors.New("review entry not found")

	// ErrAlreadyApproved means the entry's approval column already records
	// an approval, so a second one would double-issue.
	ErrAlreadyApproved = errors.New("entry already approved")

	// ErrAlreadyVerified means the email already holds an attendance code.
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrInvalidCode rejects a caller-supplied code outside [1000,9999].
	ErrInvalidCode = errors.New("code must be four digits")

	// ErrCodeTaken rejects a caller-supplied code another attendee holds.
	ErrCodeTaken = errors.New("code already issued")

	// ErrNotifier means the attendance code email could not be delivered.
	// The verified row is rolled back so the entry stays retryable.
	ErrNotifier = errors.New("attendance code delivery failed")

	// ErrInconsistent means the code went out but a bookkeeping write
	// failed afterwards; the idempotence guards absorb a retry.
	ErrInconsistent = errors.New("approval bookkeeping incomplete")
)

// Store is the slice of persistence the engine needs.
type Store interface {
	store.Registrants
	store.Reviews
	store.Verified
}

// Service implements the approval engine.
type Service struct {
	store    Store
	notifier notify.Notifier
	clock    clock.Clock
	random   random.Source
	logger   *zap.Logger
}

// NewService wires the engine.
func NewService(st Store, notifier notify.Notifier, clk clock.Clock, rnd random.Source, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if rnd == nil {
		rnd = random.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, notifier: notifier, clock: clk, random: rnd, logger: logger}
}

// SweepResult counts what one batch run did.
type SweepResult struct {
	Scanned         int `json:"scanned"`
	Issued          int `json:"issued"`
	EmailErrors     int `json:"email_errors"`
	AlreadyVerified int `json:"already_verified"`
	Failed          int `json:"failed"`
}

// RunSelection sweeps the whole review queue and processes every approved,
// not-yet-processed entry. Store trouble on one entry is logged and the sweep
// moves on; a failed code delivery halts the sweep because the code is the
// attendee's only proof of acceptance.
func (s *Service) RunSelection(ctx context.Context) (SweepResult, error) {
	entries, err := s.store.ReviewEntries(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("load review queue: %w", err)
	}

	res := SweepResult{Scanned: len(entries)}
	for i := range entries {
		// The queue is shared with human editors, so re-read each entry
		// right before acting on it.
		entry, err := s.store.ReviewEntryByID(ctx, entries[i].ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			s.logger.Warn("review entry reload failed", zap.String("id", entries[i].ID.String()), zap.Error(err))
			res.Failed++
			continue
		}
		if !entry.Approved() || entry.Processed() {
			continue
		}
		if err := s.processEntry(ctx, entry, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// processEntry handles one approved entry. Only delivery failure and code
// space exhaustion return an error; everything else is absorbed into res.
func (s *Service) processEntry(ctx context.Context, entry *models.ReviewEntry, res *SweepResult) error {
	email := emailaddr.Normalize(entry.Email)
	if !emailaddr.Valid(email) {
		if err := s.store.SetReviewApproval(ctx, entry.ID, models.ReviewMarkEmailError); err != nil {
			s.logger.Warn("email error mark failed", zap.String("id", entry.ID.String()), zap.Error(err))
			res.Failed++
			return nil
		}
		s.logger.Info("entry skipped: bad email", zap.String("lga", entry.LGA), zap.String("email", entry.Email))
		res.EmailErrors++
		return nil
	}

	if _, err := s.store.VerifiedByEmail(ctx, email); err == nil {
		if err := s.store.SetReviewApproval(ctx, entry.ID, models.ReviewMarkProcessed); err != nil {
			s.logger.Warn("processed mark failed", zap.String("id", entry.ID.String()), zap.Error(err))
			res.Failed++
			return nil
		}
		res.AlreadyVerified++
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("verified lookup failed", zap.String("email", email), zap.Error(err))
		res.Failed++
		return nil
	}

	code, err := s.nextCode(ctx)
	if err != nil {
		return err
	}
	if err := s.issue(ctx, entry, email, code); err != nil {
		if errors.Is(err, ErrNotifier) {
			return err
		}
		s.logger.Warn("entry processing failed", zap.String("id", entry.ID.String()), zap.Error(err))
		res.Failed++
		return nil
	}
	res.Issued++
	return nil
}

// issue appends the verified row, delivers the code and marks the entry.
// Delivery failure rolls the verified row back so the next sweep retries.
func (s *Service) issue(ctx context.Context, entry *models.ReviewEntry, email, code string) error {
	attendee := &models.VerifiedAttendee{
		Code:           code,
		Email:          email,
		FullName:       entry.FullName,
		Phone:          entry.Phone,
		Community:      entry.Community,
		LGAOrigin:      entry.LGA,
		AgeRange:       entry.AgeRange,
		Occupation:     entry.Occupation,
		AttendanceMode: entry.AttendanceMode,
		Status:         models.VerifiedStatusIssued,
		IssuedAt:       s.clock.Now(),
	}
	if err := s.store.AppendVerified(ctx, attendee); err != nil {
		return fmt.Errorf("append verified: %w", err)
	}

	err := s.notifier.Send(ctx, notify.Message{
		Kind:      notify.KindAttendanceCode,
		Recipient: email,
		FullName:  entry.FullName,
		LGA:       entry.LGA,
		Code:      code,
	})
	if err != nil {
		if delErr := s.store.DeleteVerifiedByID(ctx, attendee.ID); delErr != nil {
			s.logger.Error("verified row left behind after failed delivery",
				zap.String("email", email), zap.String("code", code), zap.Error(delErr))
		}
		return fmt.Errorf("%w: %v", ErrNotifier, err)
	}

	if err := s.store.SetReviewApproval(ctx, entry.ID, models.ReviewMarkSentPrefix+code); err != nil {
		// The code is out; the verified row makes a rerun mark this entry
		// PROCESSED instead of issuing twice.
		s.logger.Error("sent mark failed after delivery",
			zap.String("id", entry.ID.String()), zap.String("email", email), zap.Error(err))
	}
	s.clearPending(ctx, email, entry.SubmittedAt)

	s.logger.Info("attendance code issued", zap.String("email", email), zap.String("lga", entry.LGA))
	return nil
}

// Approve processes a single entry: locate by LGA + email + a timestamp
// within ApprovalWindow of hint, issue (or accept) a code, verify, notify,
// and reconcile the pending pool. The entry is identified by content, never
// by row position. code is optional; a fresh one is drawn when empty.
func (s *Service) Approve(ctx context.Context, lga, email string, hint time.Time, code string) (string, error) {
	email = emailaddr.Normalize(email)

	entry, err := s.store.FindReviewEntry(ctx, lga, email, hint, ApprovalWindow)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find review entry: %w", err)
	}
	if entry.ApprovalMarked() {
		return "", ErrAlreadyApproved
	}
	if _, err := s.store.VerifiedByEmail(ctx, email); err == nil {
		return "", ErrAlreadyVerified
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("verified lookup: %w", err)
	}

	if code != "" {
		if !validCode(code) {
			return "", ErrInvalidCode
		}
		exists, err := s.store.VerifiedCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("code lookup: %w", err)
		}
		if exists {
			return "", ErrCodeTaken
		}
	} else {
		if code, err = s.nextCode(ctx); err != nil {
			return "", err
		}
	}

	attendee := &models.VerifiedAttendee{
		Code:           code,
		Email:          email,
		FullName:       entry.FullName,
		Phone:          entry.Phone,
		Community:      entry.Community,
		LGAOrigin:      entry.LGA,
		AgeRange:       entry.AgeRange,
		Occupation:     entry.Occupation,
		AttendanceMode: entry.AttendanceMode,
		Status:         models.VerifiedStatusIssued,
		IssuedAt:       s.clock.Now(),
	}
	if err := s.store.AppendVerified(ctx, attendee); err != nil {
		return "", fmt.Errorf("append verified: %w", err)
	}

	err = s.notifier.Send(ctx, notify.Message{
		Kind:      notify.KindAttendanceCode,
		Recipient: email,
		FullName:  entry.FullName,
		LGA:       entry.LGA,
		Code:      code,
	})
	if err != nil {
		if delErr := s.store.DeleteVerifiedByID(ctx, attendee.ID); delErr != nil {
			s.logger.Error("verified row left behind after failed delivery",
				zap.String("email", email), zap.String("code", code), zap.Error(delErr))
		}
		return "", fmt.Errorf("%w: %v", ErrNotifier, err)
	}

	var incomplete bool
	if err := s.store.SetReviewStatus(ctx, entry.ID, "APPROVED"); err != nil {
		s.logger.Error("status mark failed after delivery", zap.String("id", entry.ID.String()), zap.Error(err))
		incomplete = true
	}
	if err := s.store.SetReviewApproval(ctx, entry.ID, models.ReviewMarkSentPrefix+code); err != nil {
		s.logger.Error("sent mark failed after delivery", zap.String("id", entry.ID.String()), zap.Error(err))
		incomplete = true
	}
	s.clearPending(ctx, email, entry.SubmittedAt)

	s.logger.Info("entry approved", zap.String("email", email), zap.String("lga", entry.LGA))
	if incomplete {
		return code, ErrInconsistent
	}
	return code, nil
}

// UpdateReviewEntry applies a reviewer's edit to the status and approval
// columns of one queue entry. A nil field leaves its column untouched; an
// explicit empty string clears it. The columns hold free text, so values are
// written verbatim and the approval predicates interpret them on read.
func (s *Service) UpdateReviewEntry(ctx context.Context, id uuid.UUID, status, approval *string) (*models.ReviewEntry, error) {
	if _, err := s.store.ReviewEntryByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load review entry: %w", err)
	}
	if status != nil {
		if err := s.store.SetReviewStatus(ctx, id, *status); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
	}
	if approval != nil {
		if err := s.store.SetReviewApproval(ctx, id, *approval); err != nil {
			return nil, fmt.Errorf("set approval status: %w", err)
		}
	}
	entry, err := s.store.ReviewEntryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload review entry: %w", err)
	}
	s.logger.Info("review entry updated",
		zap.String("id", id.String()), zap.String("email", entry.Email))
	return entry, nil
}

// Reconcile removes pending rows whose email already holds an attendance
// code, closing the window left by a crash between the verified append and
// the pending delete. Returns how many rows went away.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	verified, err := s.store.VerifiedAttendees(ctx)
	if err != nil {
		return 0, fmt.Errorf("load verified: %w", err)
	}
	removed := 0
	for i := range verified {
		n, err := s.store.DeleteRegistrantsByEmail(ctx, verified[i].Email)
		if err != nil {
			return removed, fmt.Errorf("clear pending for %s: %w", verified[i].Email, err)
		}
		if n > 0 {
			s.logger.Info("stale pending rows cleared",
				zap.String("email", verified[i].Email), zap.Int("count", n))
			removed += n
		}
	}
	return removed, nil
}

func (s *Service) clearPending(ctx context.Context, email string, around time.Time) {
	removed, err := s.store.DeleteRegistrantsWithin(ctx, email, around, ApprovalWindow)
	if err != nil {
		s.logger.Error("pending cleanup failed", zap.String("email", email), zap.Error(err))
		return
	}
	if removed == 0 {
		s.logger.Warn("no pending row matched verified entry", zap.String("email", email))
	}
}

// nextCode draws until it finds a 4-digit code no current attendee holds.
func (s *Service) nextCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeDraws; i++ {
		code := strconv.Itoa(codeMin + s.random.Intn(codeMax-codeMin+1))
		exists, err := s.store.VerifiedCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("code lookup: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("attendance code space exhausted")
}

func validCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	n, err := strconv.Atoi(code)
	return err == nil && n >= codeMin && n <= codeMax
}
