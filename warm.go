package pantry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Warm prefetches urls into the cache with the given TTL (zero uses the
// client's default). Prefetches run concurrently, bounded by
// WithWarmParallelism. Individual failures are logged and counted rather
// than aborting the remaining prefetches; an error summarizing the failure
// count is returned when any fetch failed.
func (c *Client) Warm(ctx context.Context, urls []string, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}

	var failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.warmLimit)
	for _, url := range urls {
		g.Go(func() error {
			if _, err := c.Fetch(ctx, url, FetchOptions{Strategy: NetworkFirst, TTL: ttl}); err != nil {
				failed.Add(1)
				c.logger.Debug("warm fetch failed",
					zap.String("url", url),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("pantry: %d of %d warm fetches failed", n, len(urls))
	}
	return nil
}
