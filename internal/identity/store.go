package identity

import (
	"context"

	"propmarket/pkg/domain"
)

// Store is the per-collection contract for identity records. No
// cross-collection logic lives here; the registrar owns the dual-write
// protocol. Implementations report missing rows as sentinel.ErrNotFound and
// uniqueness violations as sentinel.ErrConflict.
type Store interface {
	Insert(ctx context.Context, identity *Identity) error
	FindByID(ctx context.Context, id domain.AccountID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	UpdateByID(ctx context.Context, identity *Identity) error
	DeleteByID(ctx context.Context, id domain.AccountID) error
}
