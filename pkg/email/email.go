// Package email normalizes and validates email addresses. Emails are unique
// case-insensitively across identities and profiles, so every store write and
// lookup goes through Normalize first.
package email

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Normalize lowercases and trims an address. Stores index on the normalized
// form.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Valid reports whether s looks like an email address.
func Valid(s string) bool {
	return pattern.MatchString(Normalize(s))
}
