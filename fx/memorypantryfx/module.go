// Package memorypantryfx provides an fx module for a memory-only pantry
// client. Useful for testing.
package memorypantryfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pantrylabs/pantry"
	"github.com/pantrylabs/pantry/internal/monitor"
	"github.com/pantrylabs/pantry/internal/origin/memorigin"
	"github.com/pantrylabs/pantry/internal/stats"
	"github.com/pantrylabs/pantry/internal/stats/logger"
)

// Module provides a memory-only pantry client backed by an in-memory
// origin. Requires a *zap.Logger to be provided. The *memorigin.Fetcher
// is provided too, so tests can inject it to configure responses.
var Module = fx.Module("memorypantry",
	fx.Provide(
		newStatsCollector,
		newMonitor,
		newOrigin,
		newClient,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("pantry.stats"))
}

func newMonitor(log *zap.Logger, lc fx.Lifecycle) *monitor.Monitor {
	m := monitor.New(monitor.WithLogger(log.Named("pantry.monitor")))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.Stop()
			return nil
		},
	})
	return m
}

func newOrigin() *memorigin.Fetcher {
	return memorigin.New()
}

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Monitor   *monitor.Monitor
	Origin    *memorigin.Fetcher
	Lifecycle fx.Lifecycle
}

func newClient(p Params) (*pantry.Client, error) {
	client, err := pantry.New(
		pantry.WithOrigin(p.Origin),
		pantry.WithStats(p.Collector),
		pantry.WithMonitor(p.Monitor),
		pantry.WithLogger(p.Logger.Named("pantry")),
	)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
