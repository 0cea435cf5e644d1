// Package emailaddr normalizes and validates registrant email addresses.
// Validation is loose on purpose: one @ with a dotted domain part and no
// whitespace. Anything stricter rejects addresses the registration forms
// have historically accepted.
package emailaddr

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims surrounding whitespace and lowercases the address.
// Lookups across the pending and verified pools always use the normalized form.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Valid reports whether the normalized address passes the syntactic check.
func Valid(s string) bool {
	return pattern.MatchString(Normalize(s))
}
