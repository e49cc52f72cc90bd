// Package password hashes and verifies account passwords with bcrypt.
// Cleartext passwords exist only between the request body and Hash; stores
// only ever see the hash.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is enforced at registration and password change.
const MinLength = 8

// Hash derives a salted bcrypt hash from a cleartext password.
func Hash(cleartext string) (string, error) {
	if len(cleartext) < MinLength {
		return "", fmt.Errorf("password must be at least %d characters", MinLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cleartext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether cleartext matches the stored hash.
func Verify(hash, cleartext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(cleartext)) == nil
}
