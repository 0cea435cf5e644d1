package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/internal/store/memory"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/random"
)

type ServiceSuite struct {
	suite.Suite
	store    *memory.Store
	notifier *notify.Fake
	clock    *clock.Fake
	random   *random.Fake
	service  *Service
	ctx      context.Context
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.notifier = notify.NewFake()
	s.now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	s.clock = clock.NewFake(s.now)
	s.random = random.NewFake(3821)
	s.service = NewService(s.store, s.notifier, s.clock, s.random, nil)
	s.ctx = context.Background()
}

// seed lands a pending row and its review entry the way a submission would.
func (s *ServiceSuite) seed(lga, email string, ts time.Time) *models.ReviewEntry {
	r := &models.Registrant{
		Email:       email,
		FullName:    "Ada Lovelace",
		LGAOrigin:   lga,
		Status:      models.RegistrantStatusPending,
		SubmittedAt: ts,
	}
	e := &models.ReviewEntry{
		LGA:         lga,
		Email:       email,
		FullName:    "Ada Lovelace",
		Status:      models.RegistrantStatusPending,
		SubmittedAt: ts,
	}
	s.Require().NoError(s.store.AppendSubmission(s.ctx, r, e))
	return e
}

func (s *ServiceSuite) entry(e *models.ReviewEntry) *models.ReviewEntry {
	got, err := s.store.ReviewEntryByID(s.ctx, e.ID)
	s.Require().NoError(err)
	return got
}

// Batch sweep

func (s *ServiceSuite) TestSweepIssuesCodeForApprovedEntry() {
	e := s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, e.ID, "approve"))

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Issued)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Require().Len(verified, 1)
	s.Equal("4821", verified[0].Code)
	s.Equal(models.VerifiedStatusIssued, verified[0].Status)

	s.Equal("SENT:4821", s.entry(e).ApprovalStatus)

	msg, ok := s.notifier.LastTo("ada@example.com")
	s.Require().True(ok)
	s.Equal(notify.KindAttendanceCode, msg.Kind)
	s.Equal("4821", msg.Code)

	pending, _ := s.store.Registrants(s.ctx)
	s.Empty(pending)
}

func (s *ServiceSuite) TestSweepHonorsApprovalColumnVariants() {
	e := s.seed("Gokana", "grace@example.com", s.now)
	s.Require().NoError(s.store.SetReviewApproval(s.ctx, e.ID, "  Approved "))

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Issued)
}

func (s *ServiceSuite) TestSweepIgnoresUnapprovedEntries() {
	s.seed("Khana", "ada@example.com", s.now)

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Scanned)
	s.Zero(res.Issued)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Empty(verified)
}

func (s *ServiceSuite) TestSweepMarksBadEmail() {
	e := s.seed("Khana", "not-an-email", s.now)
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, e.ID, "APPROVED"))

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.EmailErrors)
	s.Equal(models.ReviewMarkEmailError, s.entry(e).ApprovalStatus)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Empty(verified)

	// The mark keeps the entry out of later sweeps.
	res, err = s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Zero(res.EmailErrors)
}

func (s *ServiceSuite) TestSweepMarksAlreadyVerified() {
	s.Require().NoError(s.store.AppendVerified(s.ctx, &models.VerifiedAttendee{
		Code:  "1234",
		Email: "ada@example.com",
	}))
	e := s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, e.ID, "APPROVED"))

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.AlreadyVerified)
	s.Equal(models.ReviewMarkProcessed, s.entry(e).ApprovalStatus)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Len(verified, 1)
	s.Empty(s.notifier.Sent())
}

func (s *ServiceSuite) TestSweepSkipsProcessedEntries() {
	e := s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, e.ID, "APPROVED"))
	s.Require().NoError(s.store.SetReviewApproval(s.ctx, e.ID, "SENT:9999"))

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Zero(res.Issued)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Empty(verified)
}

func (s *ServiceSuite) TestSweepRedrawsOnCodeCollision() {
	s.Require().NoError(s.store.AppendVerified(s.ctx, &models.VerifiedAttendee{
		Code:  "4821",
		Email: "taken@example.com",
	}))
	e := s.seed("Tai", "ada@example.com", s.now)
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, e.ID, "APPROVED"))
	s.random.Queue(5000)

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Issued)

	got, err := s.store.VerifiedByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("6000", got.Code)
}

func (s *ServiceSuite) TestSweepHaltsAndRollsBackOnDeliveryFailure() {
	first := s.seed("Khana", "ada@example.com", s.now)
	second := s.seed("Gokana", "grace@example.com", s.now.Add(time.Minute))
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, first.ID, "APPROVED"))
	s.Require().NoError(s.store.SetReviewStatus(s.ctx, second.ID, "APPROVED"))
	s.notifier.Err = errors.New("smtp down")

	_, err := s.service.RunSelection(s.ctx)
	s.ErrorIs(err, ErrNotifier)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Empty(verified)
	s.Empty(s.entry(first).ApprovalStatus)
	s.Empty(s.entry(second).ApprovalStatus)

	// Delivery restored: both entries go through on the next run.
	s.notifier.Err = nil
	s.random.Queue(3821, 5000)
	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, res.Issued)
}

// Single-record approval

func (s *ServiceSuite) TestApproveIssuesAndReconciles() {
	e := s.seed("Khana", "ada@example.com", s.now)

	code, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now.Add(30*time.Second), "")
	s.Require().NoError(err)
	s.Equal("4821", code)

	got := s.entry(e)
	s.Equal("APPROVED", got.Status)
	s.Equal("SENT:4821", got.ApprovalStatus)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Require().Len(verified, 1)
	s.Equal("Khana", verified[0].LGAOrigin)

	pending, _ := s.store.Registrants(s.ctx)
	s.Empty(pending)

	msg, ok := s.notifier.LastTo("ada@example.com")
	s.Require().True(ok)
	s.Equal("4821", msg.Code)
}

func (s *ServiceSuite) TestApproveTwiceReturnsAlreadyApproved() {
	s.seed("Khana", "ada@example.com", s.now)

	_, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "")
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "")
	s.ErrorIs(err, ErrAlreadyApproved)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Len(verified, 1)
}

func (s *ServiceSuite) TestApproveTimestampOutsideWindow() {
	s.seed("Khana", "ada@example.com", s.now)

	_, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now.Add(61*time.Second), "")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now.Add(60*time.Second), "")
	s.NoError(err)
}

func (s *ServiceSuite) TestApproveMatchesEmailCaseInsensitively() {
	s.seed("Khana", "ada@example.com", s.now)

	_, err := s.service.Approve(s.ctx, "Khana", " ADA@Example.com ", s.now, "")
	s.NoError(err)
}

func (s *ServiceSuite) TestApproveUnknownEntry() {
	_, err := s.service.Approve(s.ctx, "Khana", "nobody@example.com", s.now, "")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestApproveRejectsVerifiedEmail() {
	s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.AppendVerified(s.ctx, &models.VerifiedAttendee{
		Code:  "1234",
		Email: "ada@example.com",
	}))

	_, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "")
	s.ErrorIs(err, ErrAlreadyVerified)
}

func (s *ServiceSuite) TestApproveAcceptsSuppliedCode() {
	s.seed("Khana", "ada@example.com", s.now)

	code, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "2500")
	s.Require().NoError(err)
	s.Equal("2500", code)

	got, err := s.store.VerifiedByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("2500", got.Code)
}

func (s *ServiceSuite) TestApproveRejectsMalformedCode() {
	s.seed("Khana", "ada@example.com", s.now)

	for _, bad := range []string{"999", "10000", "12a4", "04821"} {
		_, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, bad)
		s.ErrorIs(err, ErrInvalidCode, "code %q", bad)
	}
}

func (s *ServiceSuite) TestApproveRejectsTakenCode() {
	s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.AppendVerified(s.ctx, &models.VerifiedAttendee{
		Code:  "2500",
		Email: "other@example.com",
	}))

	_, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "2500")
	s.ErrorIs(err, ErrCodeTaken)
}

func (s *ServiceSuite) TestApproveDeliveryFailureLeavesEntryRetryable() {
	s.seed("Khana", "ada@example.com", s.now)
	s.notifier.Err = errors.New("smtp down")

	_, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "")
	s.ErrorIs(err, ErrNotifier)

	verified, _ := s.store.VerifiedAttendees(s.ctx)
	s.Empty(verified)
	pending, _ := s.store.Registrants(s.ctx)
	s.Len(pending, 1)

	s.notifier.Err = nil
	s.random.Queue(3821)
	code, err := s.service.Approve(s.ctx, "Khana", "ada@example.com", s.now, "")
	s.Require().NoError(err)
	s.Equal("4821", code)
}

// Codes

func (s *ServiceSuite) TestIssuedCodesStayInRange() {
	svc := NewService(s.store, s.notifier, s.clock, random.New(), nil)
	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		email := fmt.Sprintf("reg%02d@example.com", i)
		s.seed("Khana", email, s.now.Add(time.Duration(i)*5*time.Minute))

		code, err := svc.Approve(s.ctx, "Khana", email, s.now.Add(time.Duration(i)*5*time.Minute), "")
		s.Require().NoError(err)

		s.Require().Len(code, 4)
		n, err := strconv.Atoi(code)
		s.Require().NoError(err)
		s.GreaterOrEqual(n, 1000)
		s.LessOrEqual(n, 9999)
		s.False(seen[code], "code %s issued twice", code)
		seen[code] = true
	}
}

func (s *ServiceSuite) TestCodeRangeBoundaries() {
	s.random = random.NewFake(0)
	s.service = NewService(s.store, s.notifier, s.clock, s.random, nil)
	s.seed("Khana", "low@example.com", s.now)

	code, err := s.service.Approve(s.ctx, "Khana", "low@example.com", s.now, "")
	s.Require().NoError(err)
	s.Equal("1000", code)

	s.random.Queue(8999)
	s.seed("Khana", "high@example.com", s.now.Add(time.Hour))
	code, err = s.service.Approve(s.ctx, "Khana", "high@example.com", s.now.Add(time.Hour), "")
	s.Require().NoError(err)
	s.Equal("9999", code)
}

// Reconcile

func (s *ServiceSuite) TestReconcileClearsPendingDuplicates() {
	s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.AppendVerified(s.ctx, &models.VerifiedAttendee{
		Code:  "4821",
		Email: "ada@example.com",
	}))

	removed, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)

	pending, _ := s.store.Registrants(s.ctx)
	s.Empty(pending)

	// Review queue is an audit log and stays put.
	entries, _ := s.store.ReviewEntries(s.ctx)
	s.Len(entries, 1)
}

func (s *ServiceSuite) TestReconcileNoopWhenConsistent() {
	s.seed("Khana", "ada@example.com", s.now)

	removed, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Zero(removed)

	pending, _ := s.store.Registrants(s.ctx)
	s.Len(pending, 1)
}

// Reviewer edits

func (s *ServiceSuite) TestUpdateReviewEntrySetsStatusColumn() {
	e := s.seed("Khana", "ada@example.com", s.now)

	status := "APPROVED"
	got, err := s.service.UpdateReviewEntry(s.ctx, e.ID, &status, nil)
	s.Require().NoError(err)
	s.Equal("APPROVED", got.Status)
	s.True(got.Approved())
	s.Empty(got.ApprovalStatus)
}

func (s *ServiceSuite) TestUpdateReviewEntryClearsApprovalColumn() {
	e := s.seed("Khana", "ada@example.com", s.now)
	s.Require().NoError(s.store.SetReviewApproval(s.ctx, e.ID, "APPROVED"))

	cleared := ""
	got, err := s.service.UpdateReviewEntry(s.ctx, e.ID, nil, &cleared)
	s.Require().NoError(err)
	s.Empty(got.ApprovalStatus)
	s.False(got.Approved())
}

func (s *ServiceSuite) TestUpdateReviewEntryUnknownID() {
	_, err := s.service.UpdateReviewEntry(s.ctx, uuid.New(), nil, nil)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestUpdatedEntryFeedsNextSweep() {
	e := s.seed("Khana", "ada@example.com", s.now)

	approval := "approve"
	_, err := s.service.UpdateReviewEntry(s.ctx, e.ID, nil, &approval)
	s.Require().NoError(err)

	res, err := s.service.RunSelection(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Issued)
	s.Equal("SENT:4821", s.entry(e).ApprovalStatus)
}
