package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

const reviewColumns = `id, lga, email, full_name, phone, community, age_range, occupation, reason, attendance_mode, status, approval_status, submitted_at`

const insertReviewEntrySQL = `INSERT INTO review_entries (` + reviewColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func scanReviewEntry(row pgx.Row) (*models.ReviewEntry, error) {
	var e models.ReviewEntry
	err := row.Scan(&e.ID, &e.LGA, &e.Email, &e.FullName, &e.Phone, &e.Community, &e.AgeRange, &e.Occupation, &e.Reason, &e.AttendanceMode, &e.Status, &e.ApprovalStatus, &e.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AppendReviewEntry inserts a screening queue entry on its own.
func (s *Store) AppendReviewEntry(ctx context.Context, e *models.ReviewEntry) error {
	if err := store.ValidateReviewEntry(e); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, insertReviewEntrySQL,
		e.ID, e.LGA, e.Email, e.FullName, e.Phone, e.Community, e.AgeRange, e.Occupation, e.Reason, e.AttendanceMode, e.Status, e.ApprovalStatus, e.SubmittedAt)
	return err
}

// ReviewEntries returns the whole screening queue in submission order.
func (s *Store) ReviewEntries(ctx context.Context) ([]models.ReviewEntry, error) {
	return s.queryReviewEntries(ctx, `SELECT `+reviewColumns+` FROM review_entries ORDER BY submitted_at, id`)
}

// ReviewEntriesByLGA returns the queue for one LGA in submission order.
func (s *Store) ReviewEntriesByLGA(ctx context.Context, lga string) ([]models.ReviewEntry, error) {
	const q = `SELECT ` + reviewColumns + ` FROM review_entries
		WHERE LOWER(lga) = LOWER(TRIM($1)) ORDER BY submitted_at, id`
	return s.queryReviewEntries(ctx, q, lga)
}

func (s *Store) queryReviewEntries(ctx context.Context, q string, args ...any) ([]models.ReviewEntry, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ReviewEntry
	for rows.Next() {
		e, err := scanReviewEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// ReviewEntryByID returns one entry.
func (s *Store) ReviewEntryByID(ctx context.Context, id uuid.UUID) (*models.ReviewEntry, error) {
	const q = `SELECT ` + reviewColumns + ` FROM review_entries WHERE id = $1`
	e, err := scanReviewEntry(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// FindReviewEntry locates the entry for the LGA and email submitted within
// window of around.
func (s *Store) FindReviewEntry(ctx context.Context, lga, email string, around time.Time, window time.Duration) (*models.ReviewEntry, error) {
	const q = `SELECT ` + reviewColumns + ` FROM review_entries
		WHERE LOWER(lga) = LOWER(TRIM($1)) AND LOWER(email) = LOWER(TRIM($2))
		AND submitted_at BETWEEN $3 AND $4
		ORDER BY submitted_at, id LIMIT 1`
	e, err := scanReviewEntry(s.pool.QueryRow(ctx, q, lga, email, around.Add(-window), around.Add(window)))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// SetReviewStatus overwrites the status column of one entry.
func (s *Store) SetReviewStatus(ctx context.Context, id uuid.UUID, status string) error {
	ct, err := s.pool.Exec(ctx, `UPDATE review_entries SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetReviewApproval overwrites the approval-status column of one entry.
func (s *Store) SetReviewApproval(ctx context.Context, id uuid.UUID, approvalStatus string) error {
	ct, err := s.pool.Exec(ctx, `UPDATE review_entries SET approval_status = $2 WHERE id = $1`, id, approvalStatus)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
