// Package store defines the persistence contracts for the summit tables.
// Implementations live in store/memory and store/postgres; services depend on
// these interfaces only, so the backing driver is a wiring decision.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRow is returned when an append is missing a key field.
	ErrInvalidRow = errors.New("invalid row")
)

// Registrants is the pending pool: every submission lands here first and
// stays until selection clears it.
type Registrants interface {
	AppendRegistrant(ctx context.Context, r *models.Registrant) error
	Registrants(ctx context.Context) ([]models.Registrant, error)
	RegistrantByEmail(ctx context.Context, email string) (*models.Registrant, error)
	// DeleteRegistrantsWithin removes pending rows for the email whose
	// submission time falls within window of around, and reports how many
	// rows went away.
	DeleteRegistrantsWithin(ctx context.Context, email string, around time.Time, window time.Duration) (int, error)
	DeleteRegistrantsByEmail(ctx context.Context, email string) (int, error)
}

// Reviews is the screening queue the selection committee works from, one
// entry per submission keyed by LGA.
type Reviews interface {
	AppendReviewEntry(ctx context.Context, e *models.ReviewEntry) error
	ReviewEntries(ctx context.Context) ([]models.ReviewEntry, error)
	ReviewEntriesByLGA(ctx context.Context, lga string) ([]models.ReviewEntry, error)
	ReviewEntryByID(ctx context.Context, id uuid.UUID) (*models.ReviewEntry, error)
	// FindReviewEntry locates the entry for the LGA and email whose
	// submission time falls within window of around.
	FindReviewEntry(ctx context.Context, lga, email string, around time.Time, window time.Duration) (*models.ReviewEntry, error)
	SetReviewStatus(ctx context.Context, id uuid.UUID, status string) error
	SetReviewApproval(ctx context.Context, id uuid.UUID, approvalStatus string) error
}

// Verified is the accepted pool of attendees holding issued entry codes.
type Verified interface {
	AppendVerified(ctx context.Context, v *models.VerifiedAttendee) error
	VerifiedAttendees(ctx context.Context) ([]models.VerifiedAttendee, error)
	VerifiedByEmail(ctx context.Context, email string) (*models.VerifiedAttendee, error)
	VerifiedCodeExists(ctx context.Context, code string) (bool, error)
	DeleteVerifiedByID(ctx context.Context, id uuid.UUID) error
}

// Users holds operator accounts. Lookups are case-insensitive on username.
type Users interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpsertUser(ctx context.Context, u *models.User) error
}

// Sessions holds login grants keyed by opaque token.
type Sessions interface {
	AppendSession(ctx context.Context, s *models.Session) error
	Sessions(ctx context.Context) ([]models.Session, error)
	SessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSessionByToken(ctx context.Context, token string) (bool, error)
	DeleteSessionsByUsername(ctx context.Context, username string) (int, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// EmailLogs records every notification attempt, sent or failed.
type EmailLogs interface {
	AppendEmailLog(ctx context.Context, l *models.EmailLog) error
	EmailLogs(ctx context.Context, limit int) ([]models.EmailLog, error)
	EmailLogByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error)
}

// Posts backs the public announcements feed.
type Posts interface {
	AppendPost(ctx context.Context, p *models.Post) error
	Posts(ctx context.Context, includeDrafts bool) ([]models.Post, error)
	PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
}

// Intake couples the two appends of a submission so both land or neither.
type Intake interface {
	AppendSubmission(ctx context.Context, r *models.Registrant, e *models.ReviewEntry) error
}

// Store is the full persistence surface the application wires once.
type Store interface {
	Intake
	Registrants
	Reviews
	Verified
	Users
	Sessions
	EmailLogs
	Posts
}

// ValidateRegistrant rejects rows missing the fields every consumer keys on.
func ValidateRegistrant(r *models.Registrant) error {
	if r == nil || r.Email == "" {
		return fmt.Errorf("%w: registrant email", ErrInvalidRow)
	}
	if r.FullName == "" {
		return fmt.Errorf("%w: registrant full name", ErrInvalidRow)
	}
	return nil
}

// ValidateReviewEntry rejects rows the selection engine could never match.
func ValidateReviewEntry(e *models.ReviewEntry) error {
	if e == nil || e.Email == "" {
		return fmt.Errorf("%w: review entry email", ErrInvalidRow)
	}
	if e.LGA == "" {
		return fmt.Errorf("%w: review entry lga", ErrInvalidRow)
	}
	return nil
}

// ValidateVerified rejects attendee rows without a code or email.
func ValidateVerified(v *models.VerifiedAttendee) error {
	if v == nil || v.Email == "" {
		return fmt.Errorf("%w: verified email", ErrInvalidRow)
	}
	if v.Code == "" {
		return fmt.Errorf("%w: verified code", ErrInvalidRow)
	}
	return nil
}

// ValidateUser rejects accounts without a username.
func ValidateUser(u *models.User) error {
	if u == nil || u.Username == "" {
		return fmt.Errorf("%w: username", ErrInvalidRow)
	}
	return nil
}

// ValidateSession rejects grants without a token or owner.
func ValidateSession(s *models.Session) error {
	if s == nil || s.Token == "" {
		return fmt.Errorf("%w: session token", ErrInvalidRow)
	}
	if s.Username == "" {
		return fmt.Errorf("%w: session username", ErrInvalidRow)
	}
	return nil
}

// ValidateEmailLog rejects log rows without a recipient or kind.
func ValidateEmailLog(l *models.EmailLog) error {
	if l == nil || l.Recipient == "" {
		return fmt.Errorf("%w: email log recipient", ErrInvalidRow)
	}
	if l.Kind == "" {
		return fmt.Errorf("%w: email log kind", ErrInvalidRow)
	}
	return nil
}

// ValidatePost rejects posts without a title.
func ValidatePost(p *models.Post) error {
	if p == nil || p.Title == "" {
		return fmt.Errorf("%w: post title", ErrInvalidRow)
	}
	return nil
}
