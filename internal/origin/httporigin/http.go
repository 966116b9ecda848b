// Package httporigin implements an HTTP-backed origin fetcher.
package httporigin

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pantrylabs/pantry/internal/origin"
)

// Compile-time check that Fetcher implements origin.Fetcher.
var _ origin.Fetcher = (*Fetcher)(nil)

// Fetcher fetches resources over HTTP.
type Fetcher struct {
	client *http.Client
}

// New creates an HTTP fetcher using the given client.
// If client is nil, http.DefaultClient is used.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch performs a GET request and returns the response body.
// Any status outside 2xx is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}
