// Package origin defines the network source that backs the cache.
package origin

import "context"

// Fetcher retrieves a resource from its origin. Implementations own their
// transport concerns (pooling, TLS, retries); the cache layer never
// retries a failed fetch.
type Fetcher interface {
	// Fetch retrieves the resource identified by url.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
