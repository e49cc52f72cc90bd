// Package identity owns the AuthIdentity record: the credential+role half of
// a registered account. Profile data lives in the customer and seller
// packages; the registrar keeps the two halves in lockstep.
package identity

import (
	"time"

	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/email"
)

// Identity is the authentication record for an account.
//
// Invariants:
//   - ID equals the linked profile's ID (referential symmetry; admins have
//     no profile and are exempt)
//   - Email is unique case-insensitively across all identities
//   - Role is one of the closed domain.Role set
//   - PasswordHash is a bcrypt hash, never cleartext
type Identity struct {
	ID           domain.AccountID `json:"_id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Role         domain.Role      `json:"role"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// New constructs an Identity, validating invariants.
func New(id domain.AccountID, name, emailAddr, passwordHash string, role domain.Role, now time.Time) (*Identity, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity name is required")
	}
	if !email.Valid(emailAddr) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity email is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity password hash is required")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity role is invalid")
	}
	return &Identity{
		ID:           id,
		Name:         name,
		Email:        email.Normalize(emailAddr),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
