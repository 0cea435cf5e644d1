package models

import (
	"strings"
	"time"
)

// UserStatusActive marks an account that may log in.
const UserStatusActive = "active"

// User is an operator account. Provisioning happens outside this service
// (rows are edited directly or seeded from the environment); the backend only
// reads them during login. Secret is either a plain string compared verbatim
// or a bcrypt hash.
type User struct {
	Username  string    `json:"username"`
	Secret    string    `json:"-"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the account may log in.
func (u *User) Active() bool {
	return strings.EqualFold(strings.TrimSpace(u.Status), UserStatusActive)
}
