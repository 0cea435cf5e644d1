package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
)

const verifiedColumns = `id, code, email, full_name, phone, community, lga_origin, age_range, occupation, attendance_mode, status, issued_at`

// AppendVerified inserts an accepted attendee with their issued code.
func (s *Store) AppendVerified(ctx context.Context, v *models.VerifiedAttendee) error {
	if err := store.ValidateVerified(v); err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	const q = `INSERT INTO verified_attendees (` + verifiedColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.pool.Exec(ctx, q,
		v.ID, v.Code, v.Email, v.FullName, v.Phone, v.Community, v.LGAOrigin, v.AgeRange, v.Occupation, v.AttendanceMode, v.Status, v.IssuedAt)
	return err
}

// VerifiedAttendees returns the accepted pool in issue order.
func (s *Store) VerifiedAttendees(ctx context.Context) ([]models.VerifiedAttendee, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+verifiedColumns+` FROM verified_attendees ORDER BY issued_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.VerifiedAttendee
	for rows.Next() {
		var v models.VerifiedAttendee
		if err := rows.Scan(&v.ID, &v.Code, &v.Email, &v.FullName, &v.Phone, &v.Community, &v.LGAOrigin, &v.AgeRange, &v.Occupation, &v.AttendanceMode, &v.Status, &v.IssuedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// VerifiedByEmail returns the accepted row for the email.
func (s *Store) VerifiedByEmail(ctx context.Context, email string) (*models.VerifiedAttendee, error) {
	const q = `SELECT ` + verifiedColumns + ` FROM verified_attendees
		WHERE LOWER(email) = LOWER(TRIM($1)) ORDER BY issued_at LIMIT 1`
	var v models.VerifiedAttendee
	err := s.pool.QueryRow(ctx, q, email).
		Scan(&v.ID, &v.Code, &v.Email, &v.FullName, &v.Phone, &v.Community, &v.LGAOrigin, &v.AgeRange, &v.Occupation, &v.AttendanceMode, &v.Status, &v.IssuedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// VerifiedCodeExists reports whether any attendee already holds the code.
func (s *Store) VerifiedCodeExists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM verified_attendees WHERE TRIM(code) = TRIM($1))`
	var exists bool
	err := s.pool.QueryRow(ctx, q, code).Scan(&exists)
	return exists, err
}

// DeleteVerifiedByID removes one accepted row, freeing its code.
func (s *Store) DeleteVerifiedByID(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM verified_attendees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
