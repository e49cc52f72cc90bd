// Package policy is the single authorization decision point. Services call
// Decide before touching owned resources so every endpoint enforces the same
// admin-or-self rule, and handlers never re-derive permissions on their own.
package policy

import (
	"fmt"

	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
)

// Operation names what the actor is attempting against a resource.
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
)

// Decide reports whether actor may perform op on the resource owned by
// owner. Admins may do anything; other roles only read and update their own
// resource, while listing and deletion are admin-only. A nil error means
// allowed.
func Decide(actor domain.Actor, owner domain.AccountID, op Operation) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleCustomer, domain.RoleSeller:
		if op == OpList {
			return dErrors.New(dErrors.CodeForbidden, "listing is restricted to administrators")
		}
		if op == OpDelete {
			return dErrors.New(dErrors.CodeForbidden, "account deletion is restricted to administrators")
		}
		if actor.ID != owner {
			return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("not allowed to %s another account's resource", op))
		}
		return nil
	default:
		// Unknown roles never reach here through the auth middleware, but
		// the guard still fails closed.
		return dErrors.New(dErrors.CodeForbidden, "unrecognized role")
	}
}

// RequireAdmin allows only administrators.
func RequireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "restricted to administrators")
	}
	return nil
}

// RequireRole allows only the given role or an administrator.
func RequireRole(actor domain.Actor, role domain.Role) error {
	if actor.Role == domain.RoleAdmin || actor.Role == role {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("restricted to %s accounts", role))
}
