package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The guard switches over it
// exhaustively; free-form role strings never enter the system past parsing.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

// ParseRole validates and returns a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleSeller, RoleCustomer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleCustomer:
		return true
	}
	return false
}

// Actor is an authenticated identity as seen by the policy guard: who is
// acting and with what persisted role. The role always comes from the
// identity store, never from token claims.
type Actor struct {
	ID   AccountID
	Role Role
}
