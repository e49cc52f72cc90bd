package seller

import (
	"context"

	"propmarket/pkg/domain"
)

// Store is the per-collection contract for seller profiles. Missing rows
// surface as sentinel.ErrNotFound, uniqueness violations (email or username)
// as sentinel.ErrConflict.
type Store interface {
	Insert(ctx context.Context, profile *Profile) error
	FindByID(ctx context.Context, id domain.AccountID) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	FindByUsername(ctx context.Context, username string) (*Profile, error)
	// List returns sellers, optionally filtered by status ("" means all).
	List(ctx context.Context, status Status) ([]*Profile, error)
	UpdateByID(ctx context.Context, profile *Profile) error
	DeleteByID(ctx context.Context, id domain.AccountID) error
}
