package customer

import (
	"context"

	"propmarket/pkg/domain"
)

// Store is the per-collection contract for customer profiles. Missing rows
// surface as sentinel.ErrNotFound, uniqueness violations as
// sentinel.ErrConflict.
type Store interface {
	Insert(ctx context.Context, profile *Profile) error
	FindByID(ctx context.Context, id domain.AccountID) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	UpdateByID(ctx context.Context, profile *Profile) error
	DeleteByID(ctx context.Context, id domain.AccountID) error
}
