// Package memorigin provides an in-memory origin fetcher for testing.
package memorigin

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pantrylabs/pantry/internal/origin"
)

// Compile-time check that Fetcher implements origin.Fetcher.
var _ origin.Fetcher = (*Fetcher)(nil)

// Fetcher is an in-memory origin for testing. It counts every Fetch call
// and can be switched into a failing mode.
type Fetcher struct {
	mu        sync.RWMutex
	responses map[string][]byte
	err       error

	calls atomic.Int64
}

// New creates a new in-memory origin.
func New() *Fetcher {
	return &Fetcher{
		responses: make(map[string][]byte),
	}
}

// SetResponse sets the payload returned for url.
// The data is copied to prevent caller mutations from affecting the origin.
func (f *Fetcher) SetResponse(url string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	f.responses[url] = copied
}

// Fail makes every subsequent Fetch return err. Pass nil to recover.
func (f *Fetcher) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns the number of Fetch calls observed.
func (f *Fetcher) Calls() int64 {
	return f.calls.Load()
}

// Fetch returns the configured payload for url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.responses[url]
	if !ok {
		return nil, &NotConfiguredError{URL: url}
	}
	return data, nil
}

// NotConfiguredError is returned when no response is configured for a URL.
type NotConfiguredError struct {
	URL string
}

func (e *NotConfiguredError) Error() string {
	return "memorigin: no response configured for " + e.URL
}
