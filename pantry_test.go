package pantry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pantrylabs/pantry/internal/origin/memorigin"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *memorigin.Fetcher) {
	t.Helper()
	org := memorigin.New()
	c, err := New(append([]Option{WithOrigin(org)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, org
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.defaultTTL != 5*time.Minute {
		t.Errorf("defaultTTL = %v, want 5m", c.defaultTTL)
	}
	st, err := c.CacheStats()
	if err != nil {
		t.Fatalf("CacheStats() error = %v", err)
	}
	if st.Capacity != 256 {
		t.Errorf("memory capacity = %d, want 256", st.Capacity)
	}
}

func TestFetch_CacheFirst(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("payload"))

	// First fetch misses and hits the origin.
	got, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: CacheFirst})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Fetch() = %q, want %q", got, "payload")
	}
	if org.Calls() != 1 {
		t.Errorf("origin calls = %d, want 1", org.Calls())
	}

	// Second fetch is served from cache with zero origin traffic.
	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: CacheFirst}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if org.Calls() != 1 {
		t.Errorf("origin calls after cached fetch = %d, want 1", org.Calls())
	}
}

func TestFetch_CacheFirst_ExpiredEntryRefetches(t *testing.T) {
	c, org := newTestClient(t, WithDefaultTTL(10*time.Millisecond))
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("v1"))

	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	org.SetResponse("https://example.com/feed", []byte("v2"))

	got, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch() after expiry error = %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Fetch() after expiry = %q, want refreshed %q", got, "v2")
	}
	if org.Calls() != 2 {
		t.Errorf("origin calls = %d, want 2", org.Calls())
	}
}

func TestFetch_NetworkFirst_PrefersOrigin(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("v1"))

	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: NetworkFirst}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// A fresh cached value must not suppress the origin request.
	org.SetResponse("https://example.com/feed", []byte("v2"))
	got, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: NetworkFirst})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Fetch() = %q, want origin value %q", got, "v2")
	}
	if org.Calls() != 2 {
		t.Errorf("origin calls = %d, want 2", org.Calls())
	}
}

func TestFetch_NetworkFirst_FallsBackToStaleCache(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("cached"))

	// Populate the cache with a short TTL, then let it lapse.
	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: NetworkFirst, TTL: time.Millisecond}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	org.Fail(errors.New("origin down"))

	got, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: NetworkFirst})
	if err != nil {
		t.Fatalf("Fetch() with failing origin error = %v, want stale fallback", err)
	}
	if string(got) != "cached" {
		t.Errorf("Fetch() = %q, want stale %q", got, "cached")
	}
}

func TestFetch_NetworkFirst_FailsWithoutFallback(t *testing.T) {
	c, org := newTestClient(t)
	org.Fail(errors.New("origin down"))

	_, err := c.Fetch(context.Background(), "https://example.com/feed", FetchOptions{Strategy: NetworkFirst})
	if err == nil {
		t.Fatal("Fetch() with failing origin and empty cache should return error")
	}
}

func TestFetch_StaleWhileRevalidate(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("v1"))

	// Miss path: the caller waits for the origin.
	got, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: StaleWhileRevalidate})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Fetch() = %q, want %q", got, "v1")
	}

	// Hit path: the cached value comes back immediately while the refresh
	// runs in the background.
	org.SetResponse("https://example.com/feed", []byte("v2"))
	got, err = c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: StaleWhileRevalidate})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Fetch() = %q, want cached %q before revalidation lands", got, "v1")
	}

	// The background refresh eventually replaces the cached value.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err = c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: CacheOnly})
		if err == nil && bytes.Equal(got, []byte("v2")) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("revalidated value never appeared, last = %q", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFetch_NetworkOnly_AlwaysHitsOrigin(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("payload"))

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: NetworkOnly}); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if org.Calls() != 3 {
		t.Errorf("origin calls = %d, want 3", org.Calls())
	}

	// The side-effect write still makes the value available cache-only.
	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: CacheOnly}); err != nil {
		t.Errorf("Fetch(CacheOnly) after NetworkOnly error = %v", err)
	}
}

func TestFetch_CacheOnly_MissReturnsErrNoData(t *testing.T) {
	c, org := newTestClient(t)

	_, err := c.Fetch(context.Background(), "https://example.com/feed", FetchOptions{Strategy: CacheOnly})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Fetch() error = %v, want ErrNoData", err)
	}
	if org.Calls() != 0 {
		t.Errorf("origin calls = %d, want 0", org.Calls())
	}
}

func TestFetch_UnknownStrategy(t *testing.T) {
	c, _ := newTestClient(t)

	if _, err := c.Fetch(context.Background(), "https://example.com/feed", FetchOptions{Strategy: Strategy(99)}); err == nil {
		t.Error("Fetch() with unknown strategy should return error")
	}
}

func TestClient_RemoveThenCacheOnlyMisses(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("payload"))

	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if err := c.Remove(ctx, "https://example.com/feed"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := c.Fetch(ctx, "https://example.com/feed", FetchOptions{Strategy: CacheOnly}); !errors.Is(err, ErrNoData) {
		t.Errorf("Fetch() after Remove() error = %v, want ErrNoData", err)
	}
}

func TestClient_Clear(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/a", []byte("1"))
	org.SetResponse("https://example.com/b", []byte("2"))

	c.Fetch(ctx, "https://example.com/a", FetchOptions{})
	c.Fetch(ctx, "https://example.com/b", FetchOptions{})

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	st, err := c.CacheStats()
	if err != nil {
		t.Fatalf("CacheStats() error = %v", err)
	}
	if st.Size != 0 {
		t.Errorf("cache size after Clear() = %d, want 0", st.Size)
	}
}

func TestClient_CacheStats(t *testing.T) {
	c, org := newTestClient(t)
	ctx := context.Background()
	org.SetResponse("https://example.com/feed", []byte("payload"))

	c.Fetch(ctx, "https://example.com/feed", FetchOptions{}) // miss, then fill
	c.Fetch(ctx, "https://example.com/feed", FetchOptions{}) // hit

	st, err := c.CacheStats()
	if err != nil {
		t.Fatalf("CacheStats() error = %v", err)
	}
	if st.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", st.Hits)
	}
	if st.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", st.Misses)
	}
}

func TestClient_Close(t *testing.T) {
	c, _ := newTestClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := c.Fetch(context.Background(), "https://example.com/feed", FetchOptions{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Fetch() after Close() error = %v, want ErrClosed", err)
	}
	if err := c.Remove(context.Background(), "key"); !errors.Is(err, ErrClosed) {
		t.Errorf("Remove() after Close() error = %v, want ErrClosed", err)
	}
	if _, err := c.CacheStats(); !errors.Is(err, ErrClosed) {
		t.Errorf("CacheStats() after Close() error = %v, want ErrClosed", err)
	}
}
