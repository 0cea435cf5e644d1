package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

const emailLogColumns = `id, recipient, kind, subject, status, error, sent_at, created_at`

// AppendEmailLog records one delivery attempt.
func (s *Store) AppendEmailLog(ctx context.Context, l *models.EmailLog) error {
	if err := store.ValidateEmailLog(l); err != nil {
		return err
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	const q = `INSERT INTO email_logs (` + emailLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, q, l.ID, l.Recipient, l.Kind, l.Subject, l.Status, l.Error, l.SentAt, l.CreatedAt)
	return err
}

// EmailLogs returns the newest attempts first, at most limit of them when
// limit is positive.
func (s *Store) EmailLogs(ctx context.Context, limit int) ([]models.EmailLog, error) {
	q := `SELECT ` + emailLogColumns + ` FROM email_logs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.Recipient, &l.Kind, &l.Subject, &l.Status, &l.Error, &l.SentAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// EmailLogByID returns one attempt.
func (s *Store) EmailLogByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	const q = `SELECT ` + emailLogColumns + ` FROM email_logs WHERE id = $1`
	var l models.EmailLog
	err := s.pool.QueryRow(ctx, q, id).Scan(&l.ID, &l.Recipient, &l.Kind, &l.Subject, &l.Status, &l.Error, &l.SentAt, &l.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}
