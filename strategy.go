package pantry

import "fmt"

// Strategy selects how Fetch reconciles the cache and the origin.
type Strategy int

const (
	// CacheFirst returns a fresh cached value when one exists; otherwise
	// it fetches from the origin, caches the result, and returns it.
	CacheFirst Strategy = iota

	// NetworkFirst attempts the origin first. On success the result is
	// cached and returned; on failure any cached value (even a logically
	// stale one) is served, and only then does the fetch fail.
	NetworkFirst

	// StaleWhileRevalidate returns the cached value immediately when one
	// exists and refreshes the cache in the background for the next call.
	// On a cache miss the caller waits for the origin.
	StaleWhileRevalidate

	// NetworkOnly always fetches from the origin. The result is still
	// written to the cache as a side effect.
	NetworkOnly

	// CacheOnly returns the cached value or ErrNoData; the origin is
	// never contacted.
	CacheOnly
)

// String returns the strategy's canonical name.
func (s Strategy) String() string {
	switch s {
	case CacheFirst:
		return "cache-first"
	case NetworkFirst:
		return "network-first"
	case StaleWhileRevalidate:
		return "stale-while-revalidate"
	case NetworkOnly:
		return "network-only"
	case CacheOnly:
		return "cache-only"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a canonical strategy name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "cache-first":
		return CacheFirst, nil
	case "network-first":
		return NetworkFirst, nil
	case "stale-while-revalidate":
		return StaleWhileRevalidate, nil
	case "network-only":
		return NetworkOnly, nil
	case "cache-only":
		return CacheOnly, nil
	default:
		return CacheFirst, fmt.Errorf("unknown strategy %q", name)
	}
}
