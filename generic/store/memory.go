// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shiftpay/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	entries     map[string][]generic.Entry
	idempotency map[idempotencyKey]generic.Entry
}

type idempotencyKey struct {
	tenant generic.TenantID
	key    string
}

func NewMemory() *Memory {
	return &Memory{
		entries:     make(map[string][]generic.Entry),
		idempotency: make(map[idempotencyKey]generic.Entry),
	}
}

// Append adds a single entry. Append-only.
func (m *Memory) Append(_ context.Context, e generic.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := idempotencyKey{tenant: e.TenantID, key: e.IdempotencyKey}
	if e.IdempotencyKey != "" {
		if _, ok := m.idempotency[k]; ok {
			return generic.ErrDuplicateIdempotencyKey
		}
	}

	entries := m.entries[e.Reference]

	// Binary search keeps entries ordered by CreatedAt
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].CreatedAt.After(e.CreatedAt)
	})

	entries = append(entries, generic.Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	m.entries[e.Reference] = entries

	if e.IdempotencyKey != "" {
		m.idempotency[k] = e
	}
	return nil
}

func (m *Memory) Load(_ context.Context, reference string) ([]generic.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Entry, len(m.entries[reference]))
	copy(result, m.entries[reference])
	return result, nil
}

func (m *Memory) Find(_ context.Context, tenantID generic.TenantID, key string) (generic.Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.idempotency[idempotencyKey{tenant: tenantID, key: key}]
	return e, ok, nil
}
