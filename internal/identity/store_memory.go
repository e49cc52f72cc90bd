package identity

import (
	"context"
	"fmt"
	"sync"

	"propmarket/pkg/domain"
	"propmarket/pkg/email"
	"propmarket/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for unit tests and dev mode.
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[domain.AccountID]Identity
	byEmail    map[string]domain.AccountID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities: make(map[domain.AccountID]Identity),
		byEmail:    make(map[string]domain.AccountID),
	}
}

func (s *MemoryStore) Insert(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Normalize(identity.Email)
	if _, exists := s.byEmail[key]; exists {
		return fmt.Errorf("insert identity: email taken: %w", sentinel.ErrConflict)
	}
	if _, exists := s.identities[identity.ID]; exists {
		return fmt.Errorf("insert identity: id taken: %w", sentinel.ErrConflict)
	}
	s.identities[identity.ID] = *identity
	s.byEmail[key] = identity.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.AccountID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.identities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, addr string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email.Normalize(addr)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.identities[id]
	return &rec, nil
}

func (s *MemoryStore) UpdateByID(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.identities[identity.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	prevKey := email.Normalize(prev.Email)
	newKey := email.Normalize(identity.Email)
	if prevKey != newKey {
		if _, taken := s.byEmail[newKey]; taken {
			return fmt.Errorf("update identity: email taken: %w", sentinel.ErrConflict)
		}
		delete(s.byEmail, prevKey)
		s.byEmail[newKey] = identity.ID
	}
	s.identities[identity.ID] = *identity
	return nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.identities[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.identities, id)
	delete(s.byEmail, email.Normalize(rec.Email))
	return nil
}
