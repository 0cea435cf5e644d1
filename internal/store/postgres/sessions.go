package postgres

import (
	"context"
	"time"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

const sessionColumns = `token, username, created_at, expires_at`

// AppendSession inserts a login grant.
func (s *Store) AppendSession(ctx context.Context, sess *models.Session) error {
	if err := store.ValidateSession(sess); err != nil {
		return err
	}
	const q = `INSERT INTO sessions (` + sessionColumns + `) VALUES ($1, $2, $3, $4)`
	_, err := s.pool.Exec(ctx, q, sess.Token, sess.Username, sess.CreatedAt, sess.ExpiresAt)
	return err
}

// Sessions returns every grant in creation order.
func (s *Store) Sessions(ctx context.Context) ([]models.Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at, token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.Token, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt); err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	return list, rows.Err()
}

// SessionByToken returns the grant for an exact token.
func (s *Store) SessionByToken(ctx context.Context, token string) (*models.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`
	var sess models.Session
	err := s.pool.QueryRow(ctx, q, token).Scan(&sess.Token, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

// DeleteSessionByToken removes one grant and reports whether it existed.
func (s *Store) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// DeleteSessionsByUsername removes every grant owned by the user.
func (s *Store) DeleteSessionsByUsername(ctx context.Context, username string) (int, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE LOWER(username) = LOWER(TRIM($1))`, username)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// DeleteExpiredSessions removes grants whose expiry lies before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}
