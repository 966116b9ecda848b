// Package cache implements a two-tier key/value cache with per-key
// expiration: a bounded in-memory tier in front of an optional durable
// tier. The memory tier is a cache of the durable tier's contents;
// expiration is tracked by the cache itself, keyed by the same key, and is
// checked before either tier is consulted.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pantrylabs/pantry/internal/cache/policy"
	"github.com/pantrylabs/pantry/internal/stats"
	"github.com/pantrylabs/pantry/internal/tier"
)

// Cache is a two-tier cache. It is safe for concurrent use, but concurrent
// Puts of the same key are not serialized across tiers: each tier observes
// its own last write, so the tiers can transiently disagree.
type Cache struct {
	mem       policy.Policy
	durable   tier.Tier // nil for memory-only caches
	collector stats.Collector
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	expiry map[string]time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats contains cache statistics accumulated since the cache was created.
type Stats struct {
	Hits     int64
	Misses   int64
	Size     int // current number of memory-tier entries
	Capacity int // maximum number of memory-tier entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates a two-tier cache. The durable tier is optional; pass nil for
// a memory-only cache. The collector and logger are optional.
func New(mem policy.Policy, durable tier.Tier, collector stats.Collector, logger *zap.Logger) *Cache {
	if collector == nil {
		collector = stats.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		mem:       mem,
		durable:   durable,
		collector: collector,
		logger:    logger,
		now:       time.Now,
		expiry:    make(map[string]time.Time),
	}
}

// Get returns the freshest unexpired value for key. The expiry index is
// consulted first, so an expired key is never served no matter which tier
// holds it. A durable-tier hit is promoted into the memory tier. Durable
// read failures fail closed: callers only ever observe a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.isExpired(key) {
		c.dropExpired(ctx, key)
		return c.miss()
	}

	if data, ok := c.mem.Get(key); ok {
		return c.hit(data)
	}

	if c.durable == nil {
		return c.miss()
	}

	raw, err := c.durable.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, tier.ErrNotFound) {
			c.logger.Debug("durable tier read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return c.miss()
	}

	expiresAt, payload, err := decodeEntry(raw)
	if err != nil {
		// Corrupt entries are treated as misses, never surfaced.
		c.logger.Debug("corrupt durable entry", zap.String("key", key))
		return c.miss()
	}
	if !expiresAt.IsZero() && c.now().After(expiresAt) {
		c.dropExpired(ctx, key)
		return c.miss()
	}

	// Promote into the memory tier and restore the expiry record; the
	// durable tier is the one that survives restarts.
	c.setExpiry(key, expiresAt)
	c.mem.Add(key, payload)
	return c.hit(payload)
}

// GetStale returns the value for key even when its expiry has passed.
// Used only by degraded fallback paths; hit/miss counters are untouched.
func (c *Cache) GetStale(ctx context.Context, key string) ([]byte, bool) {
	if data, ok := c.mem.Get(key); ok {
		return data, true
	}
	if c.durable == nil {
		return nil, false
	}
	raw, err := c.durable.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	_, payload, err := decodeEntry(raw)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Put writes the value to both tiers unconditionally (last write wins) and
// records now+ttl as the key's expiry. A ttl of zero or less means the
// entry never expires. Durable write failures are logged and swallowed;
// the memory write always succeeds.
func (c *Cache) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.setExpiry(key, expiresAt)

	if evicted := c.mem.Add(key, payload); evicted {
		c.collector.IncCounter(stats.MetricEvictions, 1)
		// Without a durable tier an evicted key is gone entirely, so its
		// expiry record must not linger; otherwise the index would grow
		// past the memory tier's capacity.
		if c.durable == nil {
			c.pruneExpiry()
		}
	}
	c.collector.SetGauge(stats.MetricCacheSize, int64(c.mem.Len()))

	if c.durable == nil {
		return
	}
	if err := c.durable.Set(ctx, key, encodeEntry(expiresAt, payload)); err != nil {
		c.collector.IncCounter(stats.MetricWriteFailures, 1)
		c.logger.Warn("durable tier write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Remove deletes key from both tiers and drops its expiry record.
// Removing an absent key is a no-op.
func (c *Cache) Remove(ctx context.Context, key string) {
	c.deleteExpiry(key)
	c.mem.Remove(key)
	if c.durable != nil {
		if err := c.durable.Delete(ctx, key); err != nil {
			c.logger.Debug("durable tier delete failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	c.collector.SetGauge(stats.MetricCacheSize, int64(c.mem.Len()))
}

// Clear empties both tiers and the expiry index.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.expiry = make(map[string]time.Time)
	c.mu.Unlock()

	c.mem.Purge()
	if c.durable != nil {
		if err := c.durable.Clear(ctx); err != nil {
			c.logger.Debug("durable tier clear failed", zap.Error(err))
		}
	}
	c.collector.SetGauge(stats.MetricCacheSize, 0)
}

// CleanExpired sweeps all tracked keys and removes those whose expiry has
// passed. Returns the number of keys removed. Intended to be invoked on
// lifecycle boundaries or from a periodic caller, not automatically.
func (c *Cache) CleanExpired(ctx context.Context) int {
	now := c.now()

	c.mu.RLock()
	expired := make([]string, 0)
	for key, at := range c.expiry {
		if !at.IsZero() && now.After(at) {
			expired = append(expired, key)
		}
	}
	c.mu.RUnlock()

	for _, key := range expired {
		c.dropExpired(ctx, key)
	}
	removed := len(expired)

	// Entries written by an earlier process carry their expiry only inside
	// the durable tier; sweep those too when the tier supports it.
	if sweeper, ok := c.durable.(tier.Sweeper); ok {
		n, err := sweeper.Sweep(ctx, func(data []byte) bool {
			expiresAt, _, err := decodeEntry(data)
			if err != nil {
				return true // drop corrupt entries
			}
			return !expiresAt.IsZero() && now.After(expiresAt)
		})
		if err != nil {
			c.logger.Debug("durable tier sweep failed", zap.Error(err))
		}
		removed += n
	}

	if removed > 0 {
		c.collector.IncCounter(stats.MetricExpired, int64(removed))
	}
	return removed
}

// Stats returns hit/miss counters plus current and maximum memory-tier size.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Size:     c.mem.Len(),
		Capacity: c.mem.Cap(),
	}
}

// Close releases the durable tier, if any.
func (c *Cache) Close() error {
	if c.durable == nil {
		return nil
	}
	return c.durable.Close()
}

func (c *Cache) hit(data []byte) ([]byte, bool) {
	c.hits.Add(1)
	c.collector.IncCounter(stats.MetricCacheHits, 1)
	return data, true
}

func (c *Cache) miss() ([]byte, bool) {
	c.misses.Add(1)
	c.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

func (c *Cache) isExpired(key string) bool {
	c.mu.RLock()
	at, ok := c.expiry[key]
	c.mu.RUnlock()
	return ok && !at.IsZero() && c.now().After(at)
}

// dropExpired lazily removes an expired key from both tiers.
func (c *Cache) dropExpired(ctx context.Context, key string) {
	c.deleteExpiry(key)
	c.mem.Remove(key)
	if c.durable != nil {
		if err := c.durable.Delete(ctx, key); err != nil {
			c.logger.Debug("expired entry delete failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}

func (c *Cache) setExpiry(key string, at time.Time) {
	c.mu.Lock()
	c.expiry[key] = at
	c.mu.Unlock()
}

func (c *Cache) deleteExpiry(key string) {
	c.mu.Lock()
	delete(c.expiry, key)
	c.mu.Unlock()
}

// pruneExpiry drops expiry records for keys no longer in the memory tier.
// Only meaningful for memory-only caches, where eviction is deletion.
func (c *Cache) pruneExpiry() {
	c.mu.Lock()
	for key := range c.expiry {
		if !c.mem.Contains(key) {
			delete(c.expiry, key)
		}
	}
	c.mu.Unlock()
}
