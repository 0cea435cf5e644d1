package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

const postColumns = `id, title, body, cover_url, attachment_url, published, created_at, updated_at`

// AppendPost inserts an announcement.
func (s *Store) AppendPost(ctx context.Context, p *models.Post) error {
	if err := store.ValidatePost(p); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	const q = `INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, q, p.ID, p.Title, p.Body, p.CoverURL, p.AttachmentURL, p.Published, p.CreatedAt, p.UpdatedAt)
	return err
}

// Posts returns announcements newest first; drafts only when includeDrafts.
func (s *Store) Posts(ctx context.Context, includeDrafts bool) ([]models.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts`
	if !includeDrafts {
		q += ` WHERE published`
	}
	q += ` ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.CoverURL, &p.AttachmentURL, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// PostByID returns one announcement.
func (s *Store) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	var p models.Post
	err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Title, &p.Body, &p.CoverURL, &p.AttachmentURL, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpdatePost overwrites an announcement in place.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	if err := store.ValidatePost(p); err != nil {
		return err
	}
	const q = `UPDATE posts
		SET title = $2, body = $3, cover_url = $4, attachment_url = $5, published = $6, updated_at = $7
		WHERE id = $1`
	ct, err := s.pool.Exec(ctx, q, p.ID, p.Title, p.Body, p.CoverURL, p.AttachmentURL, p.Published, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePost removes an announcement.
func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
