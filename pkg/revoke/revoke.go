// Package revoke tracks tokens invalidated before their natural expiry,
// typically on logout.
package revoke

import (
	"sync"
	"time"
)

// Store is the revocation set consulted by the auth middleware and the
// refresh endpoint.
type Store interface {
	// Add marks a token revoked. Idempotent. expiresAt is the token's own
	// expiry and bounds how long the entry is retained; the zero time keeps
	// the entry for the process lifetime.
	Add(token string, expiresAt time.Time)
	// IsRevoked reports whether the exact token string has been revoked.
	IsRevoked(token string) bool
}

// Memory is an in-process Store safe for concurrent use. Entries are swept
// once their token's embedded expiry has passed, so the set stays bounded by
// the number of live revoked tokens instead of growing for the process
// lifetime.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]time.Time{}, now: time.Now}
}

func (m *Memory) Add(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, exp := range m.entries {
		if !exp.IsZero() && m.now().After(exp) {
			delete(m.entries, t)
		}
	}
	m.entries[token] = expiresAt
}

func (m *Memory) IsRevoked(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.entries[token]
	if !ok {
		return false
	}
	if !exp.IsZero() && m.now().After(exp) {
		// already expired on its own terms; verification would fail anyway
		return false
	}
	return true
}
