package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
}

func (s *StoreSuite) registrant(email string) *models.Registrant {
	return &models.Registrant{
		Email:       email,
		FullName:    "Ada Lovelace",
		LGAOrigin:   "Khana",
		Status:      models.RegistrantStatusPending,
		SubmittedAt: s.now,
	}
}

func (s *StoreSuite) reviewEntry(lga, email string) *models.ReviewEntry {
	return &models.ReviewEntry{
		LGA:         lga,
		Email:       email,
		FullName:    "Ada Lovelace",
		Status:      models.RegistrantStatusPending,
		SubmittedAt: s.now,
	}
}

// Intake tests

func (s *StoreSuite) TestAppendSubmissionLandsBothRows() {
	r := s.registrant("ada@example.com")
	e := s.reviewEntry("Khana", "ada@example.com")

	err := s.store.AppendSubmission(s.ctx, r, e)
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, r.ID)
	s.NotEqual(uuid.Nil, e.ID)

	pending, err := s.store.Registrants(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)

	entries, err := s.store.ReviewEntries(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *StoreSuite) TestAppendSubmissionRejectsMissingEmail() {
	r := s.registrant("")
	e := s.reviewEntry("Khana", "ada@example.com")

	err := s.store.AppendSubmission(s.ctx, r, e)
	s.ErrorIs(err, store.ErrInvalidRow)

	pending, _ := s.store.Registrants(s.ctx)
	s.Empty(pending)
	entries, _ := s.store.ReviewEntries(s.ctx)
	s.Empty(entries)
}

// Registrant tests

func (s *StoreSuite) TestRegistrantByEmailIsCaseInsensitive() {
	s.Require().NoError(s.store.AppendRegistrant(s.ctx, s.registrant("ada@example.com")))

	got, err := s.store.RegistrantByEmail(s.ctx, "ADA@Example.COM")
	s.Require().NoError(err)
	s.Equal("ada@example.com", got.Email)
}

func (s *StoreSuite) TestRegistrantByEmailNotFound() {
	_, err := s.store.RegistrantByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestDeleteRegistrantsWithinHonorsWindow() {
	inside := s.registrant("ada@example.com")
	inside.SubmittedAt = s.now.Add(30 * time.Second)
	outside := s.registrant("ada@example.com")
	outside.SubmittedAt = s.now.Add(5 * time.Minute)
	s.Require().NoError(s.store.AppendRegistrant(s.ctx, inside))
	s.Require().NoError(s.store.AppendRegistrant(s.ctx, outside))

	removed, err := s.store.DeleteRegistrantsWithin(s.ctx, "ada@example.com", s.now, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, removed)

	pending, _ := s.store.Registrants(s.ctx)
	s.Require().Len(pending, 1)
	s.Equal(outside.SubmittedAt, pending[0].SubmittedAt)
}

func (s *StoreSuite) TestDeleteRegistrantsByEmail() {
	s.Require().NoError(s.store.AppendRegistrant(s.ctx, s.registrant("ada@example.com")))
	s.Require().NoError(s.store.AppendRegistrant(s.ctx, s.registrant("grace@example.com")))

	removed, err := s.store.DeleteRegistrantsByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(1, removed)

	pending, _ := s.store.Registrants(s.ctx)
	s.Require().Len(pending, 1)
	s.Equal("grace@example.com", pending[0].Email)
}

func (s *StoreSuite) TestRegistrantsReturnsCopy() {
	s.Require().NoError(s.store.AppendRegistrant(s.ctx, s.registrant("ada@example.com")))

	first, _ := s.store.Registrants(s.ctx)
	first[0].Email = "mutated@example.com"

	second, _ := s.store.Registrants(s.ctx)
	s.Equal("ada@example.com", second[0].Email)
}

// Review queue tests

func (s *StoreSuite) TestReviewEntriesByLGAMatchesCaseInsensitively() {
	s.Require().NoError(s.store.AppendReviewEntry(s.ctx, s.reviewEntry("Khana", "a@example.com")))
	s.Require().NoError(s.store.AppendReviewEntry(s.ctx, s.reviewEntry("Gokana", "b@example.com")))

	entries, err := s.store.ReviewEntriesByLGA(s.ctx, "khana")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("a@example.com", entries[0].Email)
}

func (s *StoreSuite) TestFindReviewEntryMatchesWithinWindow() {
	e := s.reviewEntry("Khana", "ada@example.com")
	e.SubmittedAt = s.now.Add(45 * time.Second)
	s.Require().NoError(s.store.AppendReviewEntry(s.ctx, e))

	got, err := s.store.FindReviewEntry(s.ctx, "Khana", "ada@example.com", s.now, time.Minute)
	s.Require().NoError(err)
	s.Equal(e.ID, got.ID)

	_, err = s.store.FindReviewEntry(s.ctx, "Khana", "ada@example.com", s.now.Add(-5*time.Minute), time.Minute)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestFindReviewEntryRequiresMatchingLGA() {
	s.Require().NoError(s.store.AppendReviewEntry(s.ctx, s.reviewEntry("Khana", "ada@example.com")))

	_, err := s.store.FindReviewEntry(s.ctx, "Gokana", "ada@example.com", s.now, time.Minute)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *StoreSuite) TestSetReviewStatusAndApproval() {
	e := s.reviewEntry("Khana", "ada@example.com")
	s.Require().NoError(s.store.AppendReviewEntry(s.ctx, e))

	s.Require().NoError(s.store.SetReviewStatus(s.ctx, e.ID, "APPROVED"))
	s.Require().NoError(s.store.SetReviewApproval(s.ctx, e.ID, "SENT:1234"))

	got, err := s.store.ReviewEntryByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("APPROVED", got.Status)
	s.Equal("SENT:1234", got.ApprovalStatus)
}

func (s *StoreSuite) TestSetReviewStatusUnknownID() {
	err := s.store.SetReviewStatus(s.ctx, uuid.New(), "APPROVED")
	s.ErrorIs(err, store.ErrNotFound)
}

// Verified pool tests

func (s *StoreSuite) TestVerifiedByEmailAndCodeExists() {
	v := &models.VerifiedAttendee{
		Code:     "4821",
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		Status:   models.VerifiedStatusIssued,
		IssuedAt: s.now,
	}
	s.Require().NoError(s.store.AppendVerified(s.ctx, v))

	got, err := s.store.VerifiedByEmail(s.ctx, "Ada@Example.com")
	s.Require().NoError(err)
	s.Equal("4821", got.Code)

	exists, err := s.store.VerifiedCodeExists(s.ctx, "4821")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.VerifiedCodeExists(s.ctx, "9999")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StoreSuite) TestDeleteVerifiedByID() {
	v := &models.VerifiedAttendee{Code: "4821", Email: "ada@example.com"}
	s.Require().NoError(s.store.AppendVerified(s.ctx, v))

	s.Require().NoError(s.store.DeleteVerifiedByID(s.ctx, v.ID))

	_, err := s.store.VerifiedByEmail(s.ctx, "ada@example.com")
	s.ErrorIs(err, store.ErrNotFound)
}

// User tests

func (s *StoreSuite) TestUpsertUserReplacesExisting() {
	s.Require().NoError(s.store.UpsertUser(s.ctx, &models.User{Username: "admin", Secret: "one", Status: models.UserStatusActive, CreatedAt: s.now}))
	s.Require().NoError(s.store.UpsertUser(s.ctx, &models.User{Username: "Admin", Secret: "two", Status: models.UserStatusActive, CreatedAt: s.now.Add(time.Hour)}))

	// One row, updated in place: the latest write owns the spelling and
	// secret, the first insert owns the creation time.
	got, err := s.store.UserByUsername(s.ctx, "ADMIN")
	s.Require().NoError(err)
	s.Equal("two", got.Secret)
	s.Equal("Admin", got.Username)
	s.Equal(s.now, got.CreatedAt)
}

// Session tests

func (s *StoreSuite) TestDeleteSessionsByUsername() {
	s.Require().NoError(s.store.AppendSession(s.ctx, &models.Session{Token: "t1", Username: "admin", ExpiresAt: s.now.Add(time.Hour)}))
	s.Require().NoError(s.store.AppendSession(s.ctx, &models.Session{Token: "t2", Username: "admin", ExpiresAt: s.now.Add(time.Hour)}))
	s.Require().NoError(s.store.AppendSession(s.ctx, &models.Session{Token: "t3", Username: "clerk", ExpiresAt: s.now.Add(time.Hour)}))

	removed, err := s.store.DeleteSessionsByUsername(s.ctx, "admin")
	s.Require().NoError(err)
	s.Equal(2, removed)

	left, _ := s.store.Sessions(s.ctx)
	s.Require().Len(left, 1)
	s.Equal("t3", left[0].Token)
}

func (s *StoreSuite) TestDeleteExpiredSessions() {
	s.Require().NoError(s.store.AppendSession(s.ctx, &models.Session{Token: "old", Username: "admin", ExpiresAt: s.now.Add(-time.Minute)}))
	s.Require().NoError(s.store.AppendSession(s.ctx, &models.Session{Token: "live", Username: "admin", ExpiresAt: s.now.Add(time.Hour)}))

	removed, err := s.store.DeleteExpiredSessions(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.SessionByToken(s.ctx, "old")
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.store.SessionByToken(s.ctx, "live")
	s.NoError(err)
}

func (s *StoreSuite) TestDeleteSessionByToken() {
	s.Require().NoError(s.store.AppendSession(s.ctx, &models.Session{Token: "t1", Username: "admin", ExpiresAt: s.now.Add(time.Hour)}))

	found, err := s.store.DeleteSessionByToken(s.ctx, "t1")
	s.Require().NoError(err)
	s.True(found)

	found, err = s.store.DeleteSessionByToken(s.ctx, "t1")
	s.Require().NoError(err)
	s.False(found)
}

// Email log tests

func (s *StoreSuite) TestEmailLogsNewestFirstWithLimit() {
	for _, rcpt := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		s.Require().NoError(s.store.AppendEmailLog(s.ctx, &models.EmailLog{
			Recipient: rcpt,
			Kind:      "attendance-code",
			Status:    models.EmailLogStatusSent,
			CreatedAt: s.now,
		}))
	}

	logs, err := s.store.EmailLogs(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(logs, 2)
	s.Equal("c@example.com", logs[0].Recipient)
	s.Equal("b@example.com", logs[1].Recipient)
}

// Post tests

func (s *StoreSuite) TestPostsFilterDraftsAndOrderNewestFirst() {
	draft := &models.Post{Title: "Draft", Published: false, CreatedAt: s.now}
	first := &models.Post{Title: "First", Published: true, CreatedAt: s.now}
	second := &models.Post{Title: "Second", Published: true, CreatedAt: s.now.Add(time.Hour)}
	s.Require().NoError(s.store.AppendPost(s.ctx, draft))
	s.Require().NoError(s.store.AppendPost(s.ctx, first))
	s.Require().NoError(s.store.AppendPost(s.ctx, second))

	public, err := s.store.Posts(s.ctx, false)
	s.Require().NoError(err)
	s.Require().Len(public, 2)
	s.Equal("Second", public[0].Title)

	all, err := s.store.Posts(s.ctx, true)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StoreSuite) TestUpdatePostUnknownID() {
	err := s.store.UpdatePost(s.ctx, &models.Post{ID: uuid.New(), Title: "Ghost"})
	s.ErrorIs(err, store.ErrNotFound)
}
