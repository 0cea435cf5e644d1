package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Marks written into a review entry's approval-status cell by the selection
// engine. Reviewers themselves only ever write APPROVED/APPROVE (any case,
// surrounding whitespace tolerated) into the status or approval-status column.
const (
	ReviewMarkSentPrefix = "SENT:"
	ReviewMarkEmailError = "EMAIL ERROR"
	ReviewMarkProcessed  = "PROCESSED (Already Verified)"
)

// ReviewEntry is the per-LGA screening queue projection of a registrant. Entries
// are never deleted; the queue doubles as the audit log of selection decisions.
type ReviewEntry struct {
	ID             uuid.UUID `json:"id"`
	LGA            string    `json:"lga"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone"`
	Community      string    `json:"community"`
	AgeRange       string    `json:"age_range"`
	Occupation     string    `json:"occupation"`
	Reason         string    `json:"reason"`
	AttendanceMode string    `json:"attendance_mode"`
	Status         string    `json:"status"`
	ApprovalStatus string    `json:"approval_status"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Approved reports whether a reviewer marked the entry approved in either the
// status or the approval-status column.
func (e *ReviewEntry) Approved() bool {
	return isApprovedWord(e.Status) || isApprovedWord(e.ApprovalStatus)
}

// ApprovalMarked reports whether the approval-status column itself records an
// approval: a reviewer's APPROVED word or an issued SENT mark.
func (e *ReviewEntry) ApprovalMarked() bool {
	return isApprovedWord(e.ApprovalStatus) ||
		strings.HasPrefix(strings.TrimSpace(e.ApprovalStatus), ReviewMarkSentPrefix)
}

// Processed reports whether the selection engine already acted on the entry,
// whatever the outcome.
func (e *ReviewEntry) Processed() bool {
	s := strings.TrimSpace(e.ApprovalStatus)
	return strings.HasPrefix(s, ReviewMarkSentPrefix) ||
		s == ReviewMarkEmailError ||
		s == ReviewMarkProcessed
}

func isApprovedWord(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "APPROVED") || strings.EqualFold(s, "APPROVE")
}
