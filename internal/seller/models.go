// Package seller owns the SellerProfile record and its approval lifecycle.
// Creation and deletion go exclusively through the registrar; status changes
// are admin-only and follow an explicit transition table.
package seller

import (
	"strings"
	"time"

	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/email"
	"propmarket/pkg/strutil"
)

// Status is a seller's approval state.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of Pending, Approved, Rejected")
	}
}

// transitions is the explicit approval state machine. Pending sellers get
// approved or rejected; approved sellers can later be rejected; rejected
// sellers can be sent back for another review. Approved never reverts
// straight to Pending.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {StatusPending},
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// SocialLinks holds a seller's public social profiles.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Business describes the seller's registered business, if any.
type Business struct {
	Name               string `json:"name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Designation        string `json:"designation,omitempty"`
}

// Profile is a seller's role-specific record.
//
// Invariants:
//   - ID equals the linked identity's ID
//   - Email equals the linked identity's email (case-insensitively)
//   - Username is unique case-insensitively across all sellers
//   - Status is one of the closed Status set
type Profile struct {
	ID                 domain.AccountID `json:"_id"`
	FirstName          string           `json:"first_name"`
	LastName           string           `json:"last_name"`
	Email              string           `json:"email"`
	Phone              string           `json:"phone"`
	Identification     string           `json:"identification"`
	ProfilePicture     string           `json:"profile_picture,omitempty"`
	Bio                string           `json:"bio,omitempty"`
	SocialLinks        SocialLinks      `json:"social_links"`
	PreferredLanguages []string         `json:"preferred_languages"`
	Business           Business         `json:"business"`
	Username           string           `json:"username"`
	Status             Status           `json:"status"`
	RegisteredAt       time.Time        `json:"registration_date"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// NewProfileInput carries the fields a registration request may set. Any
// status supplied by the client is ignored: new sellers always start Pending.
type NewProfileInput struct {
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Email              string      `json:"email"`
	Phone              string      `json:"phone"`
	Identification     string      `json:"identification"`
	ProfilePicture     string      `json:"profile_picture"`
	Bio                string      `json:"bio"`
	SocialLinks        SocialLinks `json:"social_links"`
	PreferredLanguages []string    `json:"preferred_languages"`
	Business           Business    `json:"business"`
	Username           string      `json:"username"`
}

// NewProfile constructs a Profile with a freshly minted account ID,
// validating invariants.
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
	if strings.TrimSpace(in.Identification) == "" {
		fields = append(fields, dErrors.FieldError{Field: "identification", Message: "is required"})
	}
	if strings.TrimSpace(in.Username) == "" {
		fields = append(fields, dErrors.FieldError{Field: "username", Message: "is required"})
	}
	if len(in.PreferredLanguages) == 0 {
		fields = append(fields, dErrors.FieldError{Field: "preferred_languages", Message: "at least one is required"})
	}
	if len(fields) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid seller profile").WithFields(fields...)
	}

	return &Profile{
		ID:                 domain.NewAccountID(),
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Email:              email.Normalize(in.Email),
		Phone:              strings.TrimSpace(in.Phone),
		Identification:     strings.TrimSpace(in.Identification),
		ProfilePicture:     strings.TrimSpace(in.ProfilePicture),
		Bio:                strings.TrimSpace(in.Bio),
		SocialLinks:        in.SocialLinks,
		PreferredLanguages: strutil.DedupeAndTrimLower(in.PreferredLanguages),
		Business:           in.Business,
		Username:           strings.ToLower(strings.TrimSpace(in.Username)),
		Status:             StatusPending,
		RegisteredAt:       now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// DisplayName is the identity-record name derived from the profile.
func (p *Profile) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// ChangeStatus applies an admin-initiated status transition, enforcing the
// transition table.
func (p *Profile) ChangeStatus(next Status, now time.Time) error {
	if p.Status == next {
		return dErrors.New(dErrors.CodeInvariantViolation, "seller already has status "+next.String())
	}
	if !p.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot transition seller status from "+p.Status.String()+" to "+next.String())
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// UpdateInput carries a partial-field merge. Email, username and status are
// deliberately absent: email must stay in sync with the identity, username is
// immutable, and status changes go through ChangeStatus.
type UpdateInput struct {
	FirstName          *string      `json:"first_name"`
	LastName           *string      `json:"last_name"`
	Phone              *string      `json:"phone"`
	Identification     *string      `json:"identification"`
	ProfilePicture     *string      `json:"profile_picture"`
	Bio                *string      `json:"bio"`
	SocialLinks        *SocialLinks `json:"social_links"`
	PreferredLanguages *[]string    `json:"preferred_languages"`
	Business           *Business    `json:"business"`
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
	if in.Identification != nil {
		p.Identification = strings.TrimSpace(*in.Identification)
	}
	if in.ProfilePicture != nil {
		p.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.SocialLinks != nil {
		p.SocialLinks = *in.SocialLinks
	}
	if in.PreferredLanguages != nil {
		p.PreferredLanguages = strutil.DedupeAndTrimLower(*in.PreferredLanguages)
	}
	if in.Business != nil {
		p.Business = *in.Business
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
	if p.Identification == "" {
		fields = append(fields, dErrors.FieldError{Field: "identification", Message: "must not be empty"})
	}
	if len(p.PreferredLanguages) == 0 {
		fields = append(fields, dErrors.FieldError{Field: "preferred_languages", Message: "at least one is required"})
	}
	if len(fields) > 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid seller update").WithFields(fields...)
	}

	p.UpdatedAt = now
	return nil
}

// Summary is the public slice of a seller joined onto property reads.
type Summary struct {
	ID             domain.AccountID `json:"_id"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	ProfilePicture string           `json:"profile_picture,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Email          string           `json:"email,omitempty"`
}
