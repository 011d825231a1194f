// Package session tracks revoked session tokens until they expire.
package session

import (
	"context"
	"sync"
	"time"
)

// Revoker records logged-out token ids.
type Revoker interface {
	// Revoke marks tokenID as revoked until expiresAt.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	// IsRevoked reports whether tokenID has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// MemoryRevoker keeps revoked ids in process memory.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	if expiresAt.After(now) {
		m.revoked[tokenID] = expiresAt
	}
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[tokenID]
	return ok && exp.After(m.now()), nil
}

func (m *MemoryRevoker) Close() error { return nil }
