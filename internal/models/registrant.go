package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrantStatusPending is the status given to a freshly submitted registrant.
const RegistrantStatusPending = "Pending Review"

// Registrant is a summit registration waiting in the pending pool. Email is the
// logical identity and is stored normalized (trimmed, lowercase).
type Registrant struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone"`
	Community      string    `json:"community"`
	LGAOrigin      string    `json:"lga_origin"`
	AgeRange       string    `json:"age_range"`
	Occupation     string    `json:"occupation"`
	Reason         string    `json:"reason"`
	AttendanceMode string    `json:"attendance_mode"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
