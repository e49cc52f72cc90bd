package property

import (
	"context"

	"propmarket/pkg/domain"
)

// Store is the persistence contract for property listings.
// Implementations return sentinel errors for callers to classify.
type Store interface {
	Insert(ctx context.Context, p *Property) error
	FindByID(ctx context.Context, id domain.PropertyID) (*Property, error)
	List(ctx context.Context, filter Filter) ([]*Property, error)
	UpdateByID(ctx context.Context, p *Property) error
	DeleteByID(ctx context.Context, id domain.PropertyID) error
	CountBySeller(ctx context.Context, sellerID domain.AccountID) (int, error)
}
