package models

import (
	"time"

	"github.com/google/uuid"
)

// VerifiedStatusIssued is the status set when an attendance code is issued.
const VerifiedStatusIssued = "Code Issued"

// VerifiedAttendee is an accepted registrant. Code is the 4-digit attendance
// code, unique among currently issued codes, and is the attendee's proof of
// acceptance at the gate.
type VerifiedAttendee struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone"`
	Community      string    `json:"community"`
	LGAOrigin      string    `json:"lga_origin"`
	AgeRange       string    `json:"age_range"`
	Occupation     string    `json:"occupation"`
	AttendanceMode string    `json:"attendance_mode"`
	Status         string    `json:"status"`
	IssuedAt       time.Time `json:"issued_at"`
}
