// Package policy defines the eviction policy interface for the memory tier.
package policy

// Policy defines the interface for bounded in-memory storage with an
// eviction policy. Implementations must be safe for concurrent use.
type Policy interface {
	// Get retrieves a value by key, marking it as recently used.
	Get(key string) ([]byte, bool)

	// Add stores a value, evicting another entry if the policy's capacity
	// is exceeded. Reports whether an eviction occurred.
	Add(key string, value []byte) bool

	// Contains reports whether key is present without updating recency.
	Contains(key string) bool

	// Remove deletes a value by key. Reports whether the key was present.
	Remove(key string) bool

	// Purge removes all entries.
	Purge()

	// Len returns the number of stored entries.
	Len() int

	// Cap returns the maximum number of entries.
	Cap() int
}
