package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog article managed through the admin surface. CoverURL and
// AttachmentURL point at objects in the public uploads bucket.
type Post struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	CoverURL      string    `json:"cover_url,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
