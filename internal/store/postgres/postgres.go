// Package postgres implements store.Store on a pgx connection pool.
package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/summitdesk/backend/internal/store"
)

// Store runs every table against the shared pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New wraps an established pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func notFound(err error) error {
	if err == pgx.ErrNoRows {
		return store.ErrNotFound
	}
	return err
}
