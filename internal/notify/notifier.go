// Package notify delivers registrant email and records every attempt.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/clock"
)

// Kind identifies which message a registrant receives.
type Kind string

const (
	// KindRegistrationReceived confirms a submission landed in the pending pool.
	KindRegistrationReceived Kind = "registration-received"
	// KindAttendanceCode carries the issued entry code after approval.
	KindAttendanceCode Kind = "attendance-code"
)

// Message is one notification addressed to a single registrant.
type Message struct {
	Kind      Kind
	Recipient string
	FullName  string
	LGA       string
	Code      string
}

// Notifier delivers one message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SubjectFor returns the subject line used for a message kind.
func SubjectFor(kind Kind) string {
	switch kind {
	case KindAttendanceCode:
		return "Your summit attendance code"
	case KindRegistrationReceived:
		return "We received your summit registration"
	default:
		return "Summit notification"
	}
}

// Recorder wraps a Notifier and writes an email log row for every attempt,
// sent or failed. The delivery outcome is passed through unchanged.
type Recorder struct {
	next   Notifier
	logs   store.EmailLogs
	clock  clock.Clock
	logger *zap.Logger
}

// NewRecorder decorates next with email log bookkeeping.
func NewRecorder(next Notifier, logs store.EmailLogs, clk clock.Clock, logger *zap.Logger) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{next: next, logs: logs, clock: clk, logger: logger}
}

// Send delivers through the wrapped notifier and appends the log row.
func (r *Recorder) Send(ctx context.Context, msg Message) error {
	err := r.next.Send(ctx, msg)

	now := r.clock.Now()
	entry := &models.EmailLog{
		Recipient: msg.Recipient,
		Kind:      string(msg.Kind),
		Subject:   SubjectFor(msg.Kind),
		CreatedAt: now,
	}
	if err != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.Error = err.Error()
	} else {
		entry.Status = models.EmailLogStatusSent
		entry.SentAt = &now
	}
	if logErr := r.logs.AppendEmailLog(ctx, entry); logErr != nil {
		r.logger.Warn("email log append failed", zap.Error(logErr), zap.String("recipient", msg.Recipient))
	}
	return err
}
