package property

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"propmarket/pkg/domain"
	"propmarket/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu         sync.RWMutex
	properties map[domain.PropertyID]*Property
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{properties: make(map[domain.PropertyID]*Property)}
}

func (s *MemoryStore) Insert(_ context.Context, p *Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[p.ID]; ok {
		return fmt.Errorf("property %s: %w", p.ID, sentinel.ErrConflict)
	}
	cp := *p
	s.properties[p.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.PropertyID) (*Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Property, 0, len(s.properties))
	for _, p := range s.properties {
		if !filter.Matches(p) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateByID(_ context.Context, p *Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[p.ID]; !ok {
		return fmt.Errorf("property %s: %w", p.ID, sentinel.ErrNotFound)
	}
	cp := *p
	s.properties[p.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id domain.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[id]; !ok {
		return fmt.Errorf("property %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.properties, id)
	return nil
}

func (s *MemoryStore) CountBySeller(_ context.Context, sellerID domain.AccountID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.properties {
		if p.SellerID == sellerID {
			n++
		}
	}
	return n, nil
}
