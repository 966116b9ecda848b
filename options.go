package pantry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pantrylabs/pantry/internal/cache/policy"
	"github.com/pantrylabs/pantry/internal/cache/policy/lru"
	"github.com/pantrylabs/pantry/internal/codec/zstdcodec"
	"github.com/pantrylabs/pantry/internal/monitor"
	"github.com/pantrylabs/pantry/internal/origin"
	"github.com/pantrylabs/pantry/internal/origin/httporigin"
	"github.com/pantrylabs/pantry/internal/stats"
	"github.com/pantrylabs/pantry/internal/tier"
	"github.com/pantrylabs/pantry/internal/tier/disktier"
	"github.com/pantrylabs/pantry/internal/tier/s3tier"
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	memoryCapacity  int
	newPolicy       func(capacity int) (policy.Policy, error)
	durable         tier.Tier
	origin          origin.Fetcher
	stats           stats.Collector
	monitor         *monitor.Monitor
	logger          *zap.Logger
	defaultTTL      time.Duration
	warmParallelism int
}

// defaultOptions returns the default configuration: a 256-entry LRU memory
// tier, no durable tier, http.DefaultClient origin, five-minute TTL.
func defaultOptions() options {
	return options{
		memoryCapacity: 256,
		newPolicy: func(capacity int) (policy.Policy, error) {
			return lru.New(capacity)
		},
		origin:          httporigin.New(nil),
		stats:           stats.NewNoop(),
		logger:          zap.NewNop(),
		defaultTTL:      5 * time.Minute,
		warmParallelism: 8,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithMemoryCapacity sets the maximum number of memory-tier entries.
// Default is 256.
func WithMemoryCapacity(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.memoryCapacity = n
		}
	})
}

// WithDurableTier sets the durable tier backing the memory tier.
// If not set, the cache is memory-only.
func WithDurableTier(t tier.Tier) Option {
	return optionFunc(func(o *options) {
		o.durable = t
	})
}

// WithOrigin sets the origin fetcher.
// If not set, an HTTP origin on http.DefaultClient is used.
func WithOrigin(f origin.Fetcher) Option {
	return optionFunc(func(o *options) {
		o.origin = f
	})
}

// WithHTTPClient sets the HTTP client used by the default HTTP origin.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(o *options) {
		o.origin = httporigin.New(hc)
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithMonitor attaches a runtime monitor whose request and hit/miss
// counters the client feeds on every fetch.
func WithMonitor(m *monitor.Monitor) Option {
	return optionFunc(func(o *options) {
		o.monitor = m
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithDefaultTTL sets the TTL applied when FetchOptions.TTL is zero.
// Default is five minutes.
func WithDefaultTTL(d time.Duration) Option {
	return optionFunc(func(o *options) {
		if d > 0 {
			o.defaultTTL = d
		}
	})
}

// WithWarmParallelism sets the number of concurrent prefetches used by
// Warm. Default is 8.
func WithWarmParallelism(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.warmParallelism = n
		}
	})
}

// WithCacheDir configures a zstd-compressed disk tier rooted at dir,
// creating the directory if needed. This is the recommended way to get a
// cache that survives process restarts.
func WithCacheDir(dir string) (Option, error) {
	dt, err := disktier.New(dir, zstdcodec.New())
	if err != nil {
		return nil, fmt.Errorf("creating disk tier: %w", err)
	}
	return optionFunc(func(o *options) {
		o.durable = dt
	}), nil
}

// WithS3Cache configures a zstd-compressed S3 durable tier in the given
// bucket, for caches shared across hosts. The bucket must already exist;
// credentials come from the default AWS config chain.
func WithS3Cache(ctx context.Context, bucket string, opts ...s3tier.Option) (Option, error) {
	st, err := s3tier.New(ctx, bucket, zstdcodec.New(), opts...)
	if err != nil {
		return nil, fmt.Errorf("creating s3 tier: %w", err)
	}
	return optionFunc(func(o *options) {
		o.durable = st
	}), nil
}
