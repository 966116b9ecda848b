// Package tier defines the storage interface for durable cache tiers.
package tier

import (
	"context"
	"encoding/hex"
	"errors"
	"hash/fnv"
)

// ErrNotFound is returned when a key does not exist in the tier.
var ErrNotFound = errors.New("tier: key not found")

// Tier defines the interface for durable cache tiers.
// Implementations handle key encoding and storage details internally.
type Tier interface {
	// Get reads the payload stored under key.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the payload under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes the payload stored under key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every payload held by the tier.
	Clear(ctx context.Context) error

	// Close releases any resources held by the tier.
	Close() error
}

// Sweeper is implemented by tiers that can enumerate their stored entries.
// Sweep visits every entry and deletes those for which shouldDelete
// returns true, reporting the number deleted. It lets a freshly opened
// cache drop expired entries written by an earlier process, whose expiry
// records only survive inside the entries themselves.
type Sweeper interface {
	Sweep(ctx context.Context, shouldDelete func(data []byte) bool) (int, error)
}

// EncodeKey returns the stable object name for a cache key: the FNV-64a
// hash of the key in hex. Collisions are not handled; two colliding keys
// overwrite each other's entries.
func EncodeKey(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}
