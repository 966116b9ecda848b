// Package memtier provides an in-memory durable tier implementation for
// testing.
package memtier

import (
	"context"
	"sync"

	"github.com/pantrylabs/pantry/internal/tier"
)

// Compile-time check that Tier implements tier.Tier.
var _ tier.Tier = (*Tier)(nil)

// Tier is an in-memory tier for testing.
type Tier struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// Error hooks for failure-injection in tests. When non-nil, the
	// corresponding operation fails with the given error.
	GetErr error
	SetErr error
}

// New creates a new in-memory tier.
func New() *Tier {
	return &Tier{
		entries: make(map[string][]byte),
	}
}

// Get reads the payload stored under key.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.GetErr != nil {
		return nil, t.GetErr
	}
	data, ok := t.entries[key]
	if !ok {
		return nil, tier.ErrNotFound
	}
	return data, nil
}

// Set stores the payload under key.
// The data is copied to prevent caller mutations from affecting the tier.
func (t *Tier) Set(ctx context.Context, key string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.SetErr != nil {
		return t.SetErr
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	t.entries[key] = copied
	return nil
}

// Delete removes the payload stored under key.
func (t *Tier) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

// Clear removes every payload.
func (t *Tier) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string][]byte)
	return nil
}

// Close is a no-op for the memory tier.
func (t *Tier) Close() error {
	return nil
}

// Len returns the number of stored entries (for test assertions).
func (t *Tier) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Has reports whether key is present (for test assertions).
func (t *Tier) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[key]
	return ok
}
