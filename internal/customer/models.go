// Package customer owns the CustomerProfile record: the role-specific half of
// a customer account. Creation and deletion go exclusively through the
// registrar so a profile never exists without its auth identity.
package customer

import (
	"strings"
	"time"

	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/email"
	"propmarket/pkg/strutil"
)

// Profile is a customer's role-specific record.
//
// Invariants:
//   - ID equals the linked identity's ID
//   - Email equals the linked identity's email (case-insensitively)
type Profile struct {
	ID           domain.AccountID `json:"_id"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Address      string           `json:"address,omitempty"`
	Interests    []string         `json:"interests,omitempty"`
	RegisteredAt time.Time        `json:"registration_date"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewProfileInput carries the fields a registration request may set.
type NewProfileInput struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	Interests []string `json:"interests"`
}

// NewProfile constructs a Profile with a freshly minted account ID,
// validating invariants. Field failures are reported per-field so the
// envelope can name them.
func NewProfile(in NewProfileInput, now time.Time) (*Profile, error) {
	var fields []dErrors.FieldError
	if strings.TrimSpace(in.FirstName) == "" {
		fields = append(fields, dErrors.FieldError{Field: "first_name", Message: "is required"})
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields = append(fields, dErrors.FieldError{Field: "last_name", Message: "is required"})
	}
	if !email.Valid(in.Email) {
		fields = append(fields, dErrors.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if strings.TrimSpace(in.Phone) == "" {
		fields = append(fields, dErrors.FieldError{Field: "phone", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid customer profile").WithFields(fields...)
	}

	return &Profile{
		ID:           domain.NewAccountID(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email.Normalize(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Interests:    strutil.DedupeAndTrimLower(in.Interests),
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DisplayName is the identity-record name derived from the profile.
func (p *Profile) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// UpdateInput carries a partial-field merge. Nil pointers leave the field
// untouched. Email changes are rejected at the service layer because the
// identity email must stay in sync.
type UpdateInput struct {
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	Interests *[]string `json:"interests"`
}

// Apply merges the update into the profile and revalidates invariants.
func (p *Profile) Apply(in UpdateInput, now time.Time) error {
	if in.FirstName != nil {
		p.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		p.Address = strings.TrimSpace(*in.Address)
	}
	if in.Interests != nil {
		p.Interests = strutil.DedupeAndTrimLower(*in.Interests)
	}

	var fields []dErrors.FieldError
	if p.FirstName == "" {
		fields = append(fields, dErrors.FieldError{Field: "first_name", Message: "must not be empty"})
	}
	if p.LastName == "" {
		fields = append(fields, dErrors.FieldError{Field: "last_name", Message: "must not be empty"})
	}
	if p.Phone == "" {
		fields = append(fields, dErrors.FieldError{Field: "phone", Message: "must not be empty"})
	}
	if len(fields) > 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid customer update").WithFields(fields...)
	}

	p.UpdatedAt = now
	return nil
}
