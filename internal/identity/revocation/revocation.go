// Package revocation tracks logged-out token IDs until their natural
// expiry. Tokens are stateless otherwise; this list is what makes logout
// effective before the JWT runs out.
package revocation

import (
	"context"
	"sync"
	"time"
)

// List is a token revocation list keyed by JWT ID.
type List interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryList keeps revocations in-process. Good for tests and single-node
// deployments; entries are pruned lazily on lookup.
type MemoryList struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewMemoryList() *MemoryList {
	return &MemoryList{expires: make(map[string]time.Time)}
}

func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[jti] = time.Now().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	deadline, ok := l.expires[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		delete(l.expires, jti)
		return false, nil
	}
	return true, nil
}
