// Package sessions issues, validates and expires the opaque login tokens
// operator accounts use. One live session per user: a new login revokes
// every earlier one.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/utils"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// secrets, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount rejects logins on deactivated accounts.
	ErrInactiveAccount = errors.New("account inactive")

	// ErrInvalidToken means no session matches the token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired means the session existed but its expiry passed; the
	// row is deleted on detection.
	ErrTokenExpired = errors.New("token expired")

	// ErrUserNotFound means a live session points at a username with no
	// account row (orphaned session).
	ErrUserNotFound = errors.New("user not found")
)

// DefaultTTL is how long a session lives when no override is configured.
const DefaultTTL = 24 * time.Hour

// Store is the slice of persistence the manager needs.
type Store interface {
	store.Users
	store.Sessions
}

// Service implements the session manager.
type Service struct {
	store  Store
	clock  clock.Clock
	ttl    time.Duration
	logger *zap.Logger
}

// NewService wires the manager. ttl <= 0 falls back to DefaultTTL.
func NewService(st Store, clk clock.Clock, ttl time.Duration, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, clock: clk, ttl: ttl, logger: logger}
}

// Login authenticates and issues a fresh token, revoking every session the
// user already holds.
func (s *Service) Login(ctx context.Context, username, secret string) (*models.Session, error) {
	u, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if !utils.MatchSecret(u.Secret, secret) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrInactiveAccount
	}

	if _, err := s.store.DeleteSessionsByUsername(ctx, u.Username); err != nil {
		return nil, fmt.Errorf("revoke prior sessions: %w", err)
	}

	now := s.clock.Now()
	sess := &models.Session{
		Token:     uuid.NewString(),
		Username:  u.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.AppendSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("append session: %w", err)
	}

	s.logger.Info("login", zap.String("username", u.Username))
	return sess, nil
}

// Validate resolves a token to its session. An expired session is deleted on
// the spot and reported as expired.
func (s *Service) Validate(ctx context.Context, token string) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	sess, err := s.store.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if sess.Expired(s.clock.Now()) {
		if _, err := s.store.DeleteSessionByToken(ctx, token); err != nil {
			s.logger.Warn("expired session cleanup failed", zap.Error(err))
		}
		return nil, ErrTokenExpired
	}
	return sess, nil
}

// Logout deletes the session if present. Succeeds even when the token
// matches nothing.
func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if _, err := s.store.DeleteSessionByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// UserInfo validates the token and returns the owning account.
func (s *Service) UserInfo(ctx context.Context, token string) (*models.User, error) {
	sess, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.UserByUsername(ctx, sess.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return u, nil
}

// SweepExpired deletes every session whose expiry has passed and returns the
// count. The other operations self-check expiry; this just keeps the table
// bounded.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions swept", zap.Int("count", n))
	}
	return n, nil
}
