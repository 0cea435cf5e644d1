package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLogStatus values for delivery outcomes.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records one delivery attempt of a templated notification.
type EmailLog struct {
	ID        uuid.UUID  `json:"id"`
	Recipient string     `json:"recipient"`
	Kind      string     `json:"kind"`
	Subject   string     `json:"subject,omitempty"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
