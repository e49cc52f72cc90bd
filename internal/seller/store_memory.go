package seller

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"propmarket/pkg/domain"
	"propmarket/pkg/email"
	"propmarket/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for unit tests and dev mode.
type MemoryStore struct {
	mu         sync.RWMutex
	profiles   map[domain.AccountID]Profile
	byEmail    map[string]domain.AccountID
	byUsername map[string]domain.AccountID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:   make(map[domain.AccountID]Profile),
		byEmail:    make(map[string]domain.AccountID),
		byUsername: make(map[string]domain.AccountID),
	}
}

func (s *MemoryStore) Insert(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := email.Normalize(profile.Email)
	userKey := strings.ToLower(profile.Username)
	if _, exists := s.byEmail[emailKey]; exists {
		return fmt.Errorf("insert seller: email taken: %w", sentinel.ErrConflict)
	}
	if _, exists := s.byUsername[userKey]; exists {
		return fmt.Errorf("insert seller: username taken: %w", sentinel.ErrConflict)
	}
	s.profiles[profile.ID] = *profile
	s.byEmail[emailKey] = profile.ID
	s.byUsername[userKey] = profile.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.AccountID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, addr string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email.Normalize(addr)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.profiles[id]
	return &rec, nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := s.profiles[id]
	return &rec, nil
}

func (s *MemoryStore) List(_ context.Context, status Status) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Profile, 0, len(s.profiles))
	for id := range s.profiles {
		rec := s.profiles[id]
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (s *MemoryStore) UpdateByID(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.profiles[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, id)
	delete(s.byEmail, email.Normalize(rec.Email))
	delete(s.byUsername, strings.ToLower(rec.Username))
	return nil
}
