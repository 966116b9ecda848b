// Package lru implements an LRU eviction policy for the memory tier.
//
// Eviction order is least-recently-used by access order, as implemented by
// hashicorp/golang-lru; entries touched at the same instant are ordered by
// insertion.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pantrylabs/pantry/internal/cache/policy"
)

// Compile-time check that Policy implements policy.Policy.
var _ policy.Policy = (*Policy)(nil)

// Policy implements LRU eviction.
type Policy struct {
	cache    *lru.Cache[string, []byte]
	capacity int
}

// New creates a new LRU policy with the given capacity.
func New(capacity int) (*Policy, error) {
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Policy{cache: c, capacity: capacity}, nil
}

// Get retrieves a value by key.
func (p *Policy) Get(key string) ([]byte, bool) {
	return p.cache.Get(key)
}

// Add adds a value, evicting the least recently used entry when full.
func (p *Policy) Add(key string, value []byte) bool {
	return p.cache.Add(key, value)
}

// Contains reports whether key is present without updating recency.
func (p *Policy) Contains(key string) bool {
	return p.cache.Contains(key)
}

// Remove deletes a value by key.
func (p *Policy) Remove(key string) bool {
	return p.cache.Remove(key)
}

// Purge removes all entries.
func (p *Policy) Purge() {
	p.cache.Purge()
}

// Len returns the number of items in the cache.
func (p *Policy) Len() int {
	return p.cache.Len()
}

// Cap returns the configured capacity.
func (p *Policy) Cap() int {
	return p.capacity
}
