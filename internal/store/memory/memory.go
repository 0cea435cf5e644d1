// Package memory implements store.Store with in-process slices guarded by a
// mutex. It backs unit tests and the memory driver used for local runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

// Store keeps every table in insertion order, matching how rows accumulate
// in the backing database.
type Store struct {
	mu          sync.RWMutex
	registrants []models.Registrant
	reviews     []models.ReviewEntry
	verified    []models.VerifiedAttendee
	users       []models.User
	sessions    []models.Session
	emailLogs   []models.EmailLog
	posts       []models.Post
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

func sameFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func within(t, around time.Time, window time.Duration) bool {
	d := t.Sub(around)
	if d < 0 {
		d = -d
	}
	return d <= window
}

// AppendSubmission lands the pending row and its review entry together under
// one lock hold, so readers never observe one without the other.
func (s *Store) AppendSubmission(_ context.Context, r *models.Registrant, e *models.ReviewEntry) error {
	if err := store.ValidateRegistrant(r); err != nil {
		return err
	}
	if err := store.ValidateReviewEntry(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.registrants = append(s.registrants, *r)
	s.reviews = append(s.reviews, *e)
	return nil
}

func (s *Store) AppendRegistrant(_ context.Context, r *models.Registrant) error {
	if err := store.ValidateRegistrant(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.registrants = append(s.registrants, *r)
	return nil
}

func (s *Store) Registrants(_ context.Context) ([]models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Registrant(nil), s.registrants...), nil
}

func (s *Store) RegistrantByEmail(_ context.Context, email string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.registrants {
		if sameFold(s.registrants[i].Email, email) {
			r := s.registrants[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteRegistrantsWithin(_ context.Context, email string, around time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.registrants[:0]
	removed := 0
	for _, r := range s.registrants {
		if sameFold(r.Email, email) && within(r.SubmittedAt, around, window) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.registrants = kept
	return removed, nil
}

func (s *Store) DeleteRegistrantsByEmail(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.registrants[:0]
	removed := 0
	for _, r := range s.registrants {
		if sameFold(r.Email, email) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.registrants = kept
	return removed, nil
}

func (s *Store) AppendReviewEntry(_ context.Context, e *models.ReviewEntry) error {
	if err := store.ValidateReviewEntry(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.reviews = append(s.reviews, *e)
	return nil
}

func (s *Store) ReviewEntries(_ context.Context) ([]models.ReviewEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ReviewEntry(nil), s.reviews...), nil
}

func (s *Store) ReviewEntriesByLGA(_ context.Context, lga string) ([]models.ReviewEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReviewEntry
	for _, e := range s.reviews {
		if sameFold(e.LGA, lga) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ReviewEntryByID(_ context.Context, id uuid.UUID) (*models.ReviewEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			e := s.reviews[i]
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindReviewEntry(_ context.Context, lga, email string, around time.Time, window time.Duration) (*models.ReviewEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.reviews {
		e := s.reviews[i]
		if sameFold(e.LGA, lga) && sameFold(e.Email, email) && within(e.SubmittedAt, around, window) {
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SetReviewStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			s.reviews[i].Status = status
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) SetReviewApproval(_ context.Context, id uuid.UUID, approvalStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			s.reviews[i].ApprovalStatus = approvalStatus
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) AppendVerified(_ context.Context, v *models.VerifiedAttendee) error {
	if err := store.ValidateVerified(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.verified = append(s.verified, *v)
	return nil
}

func (s *Store) VerifiedAttendees(_ context.Context) ([]models.VerifiedAttendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.VerifiedAttendee(nil), s.verified...), nil
}

func (s *Store) VerifiedByEmail(_ context.Context, email string) (*models.VerifiedAttendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.verified {
		if sameFold(s.verified[i].Email, email) {
			v := s.verified[i]
			return &v, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) VerifiedCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.verified {
		if strings.TrimSpace(v.Code) == strings.TrimSpace(code) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteVerifiedByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.verified {
		if s.verified[i].ID == id {
			s.verified = append(s.verified[:i], s.verified[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) UserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if sameFold(s.users[i].Username, username) {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpsertUser(_ context.Context, u *models.User) error {
	if err := store.ValidateUser(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if sameFold(s.users[i].Username, u.Username) {
			created := s.users[i].CreatedAt
			s.users[i] = *u
			s.users[i].CreatedAt = created
			return nil
		}
	}
	s.users = append(s.users, *u)
	return nil
}

func (s *Store) AppendSession(_ context.Context, sess *models.Session) error {
	if err := store.ValidateSession(sess); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, *sess)
	return nil
}

func (s *Store) Sessions(_ context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Session(nil), s.sessions...), nil
}

func (s *Store) SessionByToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.sessions {
		if s.sessions[i].Token == token {
			sess := s.sessions[i]
			return &sess, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteSessionByToken(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].Token == token {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteSessionsByUsername(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0]
	removed := 0
	for _, sess := range s.sessions {
		if sameFold(sess.Username, username) {
			removed++
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	return removed, nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0]
	removed := 0
	for _, sess := range s.sessions {
		if sess.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	return removed, nil
}

func (s *Store) AppendEmailLog(_ context.Context, l *models.EmailLog) error {
	if err := store.ValidateEmailLog(l); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	s.emailLogs = append(s.emailLogs, *l)
	return nil
}

// EmailLogs returns the newest entries first, at most limit of them when
// limit is positive.
func (s *Store) EmailLogs(_ context.Context, limit int) ([]models.EmailLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.EmailLog, 0, len(s.emailLogs))
	for i := len(s.emailLogs) - 1; i >= 0; i-- {
		out = append(out, s.emailLogs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) EmailLogByID(_ context.Context, id uuid.UUID) (*models.EmailLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.emailLogs {
		if s.emailLogs[i].ID == id {
			l := s.emailLogs[i]
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) AppendPost(_ context.Context, p *models.Post) error {
	if err := store.ValidatePost(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.posts = append(s.posts, *p)
	return nil
}

// Posts returns newest first; drafts are skipped unless includeDrafts is set.
func (s *Store) Posts(_ context.Context, includeDrafts bool) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, 0, len(s.posts))
	for i := len(s.posts) - 1; i >= 0; i-- {
		if !includeDrafts && !s.posts[i].Published {
			continue
		}
		out = append(out, s.posts[i])
	}
	return out, nil
}

func (s *Store) PostByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			p := s.posts[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdatePost(_ context.Context, p *models.Post) error {
	if err := store.ValidatePost(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == p.ID {
			s.posts[i] = *p
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeletePost(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
