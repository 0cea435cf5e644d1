// Package utils carries small helpers shared across binaries.
package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes an operator secret for storage using bcrypt.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// MatchSecret compares a stored secret with a presented one. Stored values
// carrying a bcrypt prefix are verified as hashes; anything else is compared
// verbatim, matching how existing operator rows were provisioned by hand.
func MatchSecret(stored, presented string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
	}
	return stored == presented
}
