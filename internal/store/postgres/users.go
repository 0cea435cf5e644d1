package postgres

import (
	"context"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

// UserByUsername returns the operator account, matching case-insensitively.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `SELECT username, secret, status, created_at FROM users
		WHERE LOWER(username) = LOWER(TRIM($1))`
	var u models.User
	err := s.pool.QueryRow(ctx, q, username).Scan(&u.Username, &u.Secret, &u.Status, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UpsertUser inserts or updates the account row, matching the username
// case-insensitively. The stored spelling follows the latest write; the
// creation time is set once on first insert.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	if err := store.ValidateUser(u); err != nil {
		return err
	}
	const q = `INSERT INTO users (username, secret, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (LOWER(username)) DO UPDATE
		SET username = EXCLUDED.username, secret = EXCLUDED.secret, status = EXCLUDED.status`
	_, err := s.pool.Exec(ctx, q, u.Username, u.Secret, u.Status, u.CreatedAt)
	return err
}
