// Package pantry provides a stale-aware, two-tier resource cache for
// clients: a bounded in-memory tier in front of a durable on-disk tier,
// with per-key expiration and strategy-driven fetching from an HTTP origin.
//
// Example usage:
//
//	dirOpt, err := pantry.WithCacheDir("/path/to/cache")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := pantry.New(dirOpt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	data, err := client.Fetch(ctx, "https://example.com/feed.json", pantry.FetchOptions{
//	    Strategy: pantry.CacheFirst,
//	    TTL:      time.Minute,
//	})
package pantry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pantrylabs/pantry/internal/cache"
	"github.com/pantrylabs/pantry/internal/monitor"
	"github.com/pantrylabs/pantry/internal/origin"
	"github.com/pantrylabs/pantry/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoData indicates no cached data was available to satisfy the
	// request.
	ErrNoData = errors.New("pantry: no cached data")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("pantry: client closed")
)

// FetchOptions controls a single Fetch call. The zero value means
// cache-first with the client's default TTL.
type FetchOptions struct {
	Strategy Strategy
	TTL      time.Duration
}

// Client is a strategy-driven fetcher in front of a two-tier cache.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	cache      *cache.Cache
	origin     origin.Fetcher
	stats      stats.Collector
	monitor    *monitor.Monitor
	logger     *zap.Logger
	defaultTTL time.Duration
	warmLimit  int
	closed     atomic.Bool
}

// New creates a new Client with the given options.
// If no options are provided, a memory-only cache in front of an
// http.DefaultClient origin is used.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	mem, err := cfg.newPolicy(cfg.memoryCapacity)
	if err != nil {
		return nil, fmt.Errorf("creating memory tier: %w", err)
	}

	c := &Client{
		cache:      cache.New(mem, cfg.durable, cfg.stats, cfg.logger.Named("cache")),
		origin:     cfg.origin,
		stats:      cfg.stats,
		monitor:    cfg.monitor,
		logger:     cfg.logger,
		defaultTTL: cfg.defaultTTL,
		warmLimit:  cfg.warmParallelism,
	}

	c.logger.Debug("client initialized",
		zap.Int("memoryCapacity", cfg.memoryCapacity),
		zap.Bool("durableTier", cfg.durable != nil),
		zap.Duration("defaultTTL", cfg.defaultTTL),
	)

	return c, nil
}

// Fetch returns the resource identified by url, reconciling the cache and
// the origin according to the requested strategy. A zero TTL uses the
// client's default. Fetch never retries; callers that want retry must
// re-invoke it.
func (c *Client) Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.stats.IncCounter(stats.MetricFetches, 1)
	start := time.Now()
	defer func() {
		c.stats.ObserveHistogram(stats.MetricFetchSeconds, time.Since(start).Seconds())
	}()

	ttl := opts.TTL
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	switch opts.Strategy {
	case CacheFirst:
		return c.cacheFirst(ctx, url, ttl)
	case NetworkFirst:
		return c.networkFirst(ctx, url, ttl)
	case StaleWhileRevalidate:
		return c.staleWhileRevalidate(ctx, url, ttl)
	case NetworkOnly:
		return c.fetchOrigin(ctx, url, ttl)
	case CacheOnly:
		return c.cacheOnly(ctx, url)
	default:
		return nil, fmt.Errorf("pantry: unknown strategy %v", opts.Strategy)
	}
}

// Remove deletes the cached entry for url from both tiers.
func (c *Client) Remove(ctx context.Context, url string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.cache.Remove(ctx, url)
	return nil
}

// Clear empties the cache.
func (c *Client) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.cache.Clear(ctx)
	return nil
}

// CleanExpired sweeps expired entries from both tiers and returns the
// number of keys removed.
func (c *Client) CleanExpired(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.cache.CleanExpired(ctx), nil
}

// CacheStats returns hit/miss counters and memory-tier occupancy.
func (c *Client) CacheStats() (cache.Stats, error) {
	if c.closed.Load() {
		return cache.Stats{}, ErrClosed
	}
	return c.cache.Stats(), nil
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}
	return nil
}

// cacheFirst serves a fresh cached value and only then asks the origin.
func (c *Client) cacheFirst(ctx context.Context, url string, ttl time.Duration) ([]byte, error) {
	if data, ok := c.lookup(ctx, url); ok {
		return data, nil
	}
	data, err := c.fetchOrigin(ctx, url, ttl)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// networkFirst asks the origin and degrades to the cache on failure, even
// when the cached value is logically stale.
func (c *Client) networkFirst(ctx context.Context, url string, ttl time.Duration) ([]byte, error) {
	data, err := c.fetchOrigin(ctx, url, ttl)
	if err == nil {
		return data, nil
	}

	if stale, ok := c.cache.GetStale(ctx, url); ok {
		c.logger.Debug("origin failed, serving cached value",
			zap.String("url", url),
			zap.Error(err),
		)
		return stale, nil
	}
	return nil, fmt.Errorf("origin fetch failed with no cached fallback: %w", err)
}

// staleWhileRevalidate serves the cached value immediately and refreshes
// it in the background for the next call. Concurrent refreshes of the same
// key are not coalesced.
func (c *Client) staleWhileRevalidate(ctx context.Context, url string, ttl time.Duration) ([]byte, error) {
	if data, ok := c.lookup(ctx, url); ok {
		go c.revalidate(url, ttl)
		return data, nil
	}
	return c.fetchOrigin(ctx, url, ttl)
}

// cacheOnly never touches the origin.
func (c *Client) cacheOnly(ctx context.Context, url string) ([]byte, error) {
	if data, ok := c.lookup(ctx, url); ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoData, url)
}

// lookup probes the cache and feeds the monitor's hit/miss counters.
func (c *Client) lookup(ctx context.Context, url string) ([]byte, bool) {
	data, ok := c.cache.Get(ctx, url)
	if c.monitor != nil {
		if ok {
			c.monitor.TrackCacheHit()
		} else {
			c.monitor.TrackCacheMiss()
		}
	}
	return data, ok
}

// fetchOrigin performs the network fetch and writes the result through to
// the cache.
func (c *Client) fetchOrigin(ctx context.Context, url string, ttl time.Duration) ([]byte, error) {
	c.stats.IncCounter(stats.MetricOriginRequests, 1)
	if c.monitor != nil {
		c.monitor.TrackNetworkRequest()
	}

	data, err := c.origin.Fetch(ctx, url)
	if err != nil {
		c.stats.IncCounter(stats.MetricOriginFailures, 1)
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	c.cache.Put(ctx, url, data, ttl)
	return data, nil
}

// revalidate is the fire-and-forget background refresh behind
// StaleWhileRevalidate. It deliberately detaches from the caller's
// context: the caller already has its answer.
func (c *Client) revalidate(url string, ttl time.Duration) {
	if c.closed.Load() {
		return
	}
	if _, err := c.fetchOrigin(context.Background(), url, ttl); err != nil {
		c.logger.Debug("background revalidation failed",
			zap.String("url", url),
			zap.Error(err),
		)
	}
}
