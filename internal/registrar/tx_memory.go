package registrar

import (
	"context"
	"sync"

	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/seller"
	"propmarket/pkg/domain"
)

// MemoryTx runs callbacks against in-memory stores with best-effort
// atomicity: writes are journaled and undone in reverse order when the
// callback fails. Transactions are serialized by a mutex, which is enough
// for tests and single-process development.
type MemoryTx struct {
	mu     sync.Mutex
	stores Stores
}

func NewMemoryTx(stores Stores) *MemoryTx {
	return &MemoryTx{stores: stores}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	j := &journal{}
	txStores := Stores{
		Identities: &identityTxStore{Store: t.stores.Identities, journal: j},
		Customers:  &customerTxStore{Store: t.stores.Customers, journal: j},
		Sellers:    &sellerTxStore{Store: t.stores.Sellers, journal: j},
	}
	if err := fn(txStores); err != nil {
		j.undo(ctx)
		return err
	}
	return nil
}

// journal collects undo actions for writes that have already landed.
type journal struct {
	undos []func(ctx context.Context)
}

func (j *journal) add(undo func(ctx context.Context)) {
	j.undos = append(j.undos, undo)
}

func (j *journal) undo(ctx context.Context) {
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i](ctx)
	}
}

type identityTxStore struct {
	identity.Store
	journal *journal
}

func (s *identityTxStore) Insert(ctx context.Context, rec *identity.Identity) error {
	if err := s.Store.Insert(ctx, rec); err != nil {
		return err
	}
	id := rec.ID
	s.journal.add(func(ctx context.Context) { _ = s.Store.DeleteByID(ctx, id) })
	return nil
}

func (s *identityTxStore) UpdateByID(ctx context.Context, rec *identity.Identity) error {
	orig, err := s.Store.FindByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateByID(ctx, rec); err != nil {
		return err
	}
	s.journal.add(func(ctx context.Context) { _ = s.Store.UpdateByID(ctx, orig) })
	return nil
}

func (s *identityTxStore) DeleteByID(ctx context.Context, id domain.AccountID) error {
	orig, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.journal.add(func(ctx context.Context) { _ = s.Store.Insert(ctx, orig) })
	return nil
}

type customerTxStore struct {
	customer.Store
	journal *journal
}

func (s *customerTxStore) Insert(ctx context.Context, profile *customer.Profile) error {
	if err := s.Store.Insert(ctx, profile); err != nil {
		return err
	}
	id := profile.ID
	s.journal.add(func(ctx context.Context) { _ = s.Store.DeleteByID(ctx, id) })
	return nil
}

func (s *customerTxStore) UpdateByID(ctx context.Context, profile *customer.Profile) error {
	orig, err := s.Store.FindByID(ctx, profile.ID)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateByID(ctx, profile); err != nil {
		return err
	}
	s.journal.add(func(ctx context.Context) { _ = s.Store.UpdateByID(ctx, orig) })
	return nil
}

func (s *customerTxStore) DeleteByID(ctx context.Context, id domain.AccountID) error {
	orig, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.journal.add(func(ctx context.Context) { _ = s.Store.Insert(ctx, orig) })
	return nil
}

type sellerTxStore struct {
	seller.Store
	journal *journal
}

func (s *sellerTxStore) Insert(ctx context.Context, profile *seller.Profile) error {
	if err := s.Store.Insert(ctx, profile); err != nil {
		return err
	}
	id := profile.ID
	s.journal.add(func(ctx context.Context) { _ = s.Store.DeleteByID(ctx, id) })
	return nil
}

func (s *sellerTxStore) UpdateByID(ctx context.Context, profile *seller.Profile) error {
	orig, err := s.Store.FindByID(ctx, profile.ID)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateByID(ctx, profile); err != nil {
		return err
	}
	s.journal.add(func(ctx context.Context) { _ = s.Store.UpdateByID(ctx, orig) })
	return nil
}

func (s *sellerTxStore) DeleteByID(ctx context.Context, id domain.AccountID) error {
	orig, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.journal.add(func(ctx context.Context) { _ = s.Store.Insert(ctx, orig) })
	return nil
}
