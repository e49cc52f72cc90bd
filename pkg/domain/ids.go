package domain

import (
	"github.com/google/uuid"

	dErrors "propmarket/pkg/domain-errors"
)

// AccountID is the identifier shared by an auth identity and its profile.
// The referential-symmetry invariant hangs off this: a profile row and an
// identity row with the same AccountID describe the same person.
type AccountID uuid.UUID

// PropertyID identifies a property listing.
type PropertyID uuid.UUID

// NewAccountID mints a fresh account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

// NewPropertyID mints a fresh property identifier.
func NewPropertyID() PropertyID {
	return PropertyID(uuid.New())
}

// ParseAccountID validates s as a non-nil UUID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParsePropertyID validates s as a non-nil UUID.
func ParsePropertyID(s string) (PropertyID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PropertyID{}, err
	}
	return PropertyID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return u, nil
}

func (a AccountID) String() string { return uuid.UUID(a).String() }
func (a AccountID) IsNil() bool    { return uuid.UUID(a) == uuid.Nil }

// MarshalText keeps the canonical UUID string on the wire; without it the
// defined type would serialize as a raw byte array.
func (a AccountID) MarshalText() ([]byte, error) {
	return uuid.UUID(a).MarshalText()
}

func (a *AccountID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(a).UnmarshalText(data)
}

func (p PropertyID) String() string { return uuid.UUID(p).String() }
func (p PropertyID) IsNil() bool    { return uuid.UUID(p) == uuid.Nil }

func (p PropertyID) MarshalText() ([]byte, error) {
	return uuid.UUID(p).MarshalText()
}

func (p *PropertyID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(p).UnmarshalText(data)
}
