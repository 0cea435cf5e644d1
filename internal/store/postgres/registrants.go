package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

const registrantColumns = `id, email, full_name, phone, community, lga_origin, age_range, occupation, reason, attendance_mode, status, submitted_at`

// AppendSubmission inserts the pending row and its review entry in one
// transaction.
func (s *Store) AppendSubmission(ctx context.Context, r *models.Registrant, e *models.ReviewEntry) error {
	if err := store.ValidateRegistrant(r); err != nil {
		return err
	}
	if err := store.ValidateReviewEntry(e); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, insertRegistrantSQL,
		r.ID, r.Email, r.FullName, r.Phone, r.Community, r.LGAOrigin, r.AgeRange, r.Occupation, r.Reason, r.AttendanceMode, r.Status, r.SubmittedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertReviewEntrySQL,
		e.ID, e.LGA, e.Email, e.FullName, e.Phone, e.Community, e.AgeRange, e.Occupation, e.Reason, e.AttendanceMode, e.Status, e.ApprovalStatus, e.SubmittedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const insertRegistrantSQL = `INSERT INTO registrants (` + registrantColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// AppendRegistrant inserts a pending row on its own.
func (s *Store) AppendRegistrant(ctx context.Context, r *models.Registrant) error {
	if err := store.ValidateRegistrant(r); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, insertRegistrantSQL,
		r.ID, r.Email, r.FullName, r.Phone, r.Community, r.LGAOrigin, r.AgeRange, r.Occupation, r.Reason, r.AttendanceMode, r.Status, r.SubmittedAt)
	return err
}

// Registrants returns the pending pool in submission order.
func (s *Store) Registrants(ctx context.Context) ([]models.Registrant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+registrantColumns+` FROM registrants ORDER BY submitted_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registrant
	for rows.Next() {
		var r models.Registrant
		if err := rows.Scan(&r.ID, &r.Email, &r.FullName, &r.Phone, &r.Community, &r.LGAOrigin, &r.AgeRange, &r.Occupation, &r.Reason, &r.AttendanceMode, &r.Status, &r.SubmittedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// RegistrantByEmail returns the oldest pending row for the email.
func (s *Store) RegistrantByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	const q = `SELECT ` + registrantColumns + ` FROM registrants
		WHERE LOWER(email) = LOWER(TRIM($1)) ORDER BY submitted_at LIMIT 1`
	var r models.Registrant
	err := s.pool.QueryRow(ctx, q, email).
		Scan(&r.ID, &r.Email, &r.FullName, &r.Phone, &r.Community, &r.LGAOrigin, &r.AgeRange, &r.Occupation, &r.Reason, &r.AttendanceMode, &r.Status, &r.SubmittedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// DeleteRegistrantsWithin removes pending rows for the email submitted within
// window of around.
func (s *Store) DeleteRegistrantsWithin(ctx context.Context, email string, around time.Time, window time.Duration) (int, error) {
	const q = `DELETE FROM registrants
		WHERE LOWER(email) = LOWER(TRIM($1)) AND submitted_at BETWEEN $2 AND $3`
	ct, err := s.pool.Exec(ctx, q, email, around.Add(-window), around.Add(window))
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// DeleteRegistrantsByEmail removes every pending row for the email.
func (s *Store) DeleteRegistrantsByEmail(ctx context.Context, email string) (int, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM registrants WHERE LOWER(email) = LOWER(TRIM($1))`, email)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}
