// Package diskpantryfx provides an fx module for a disk-backed pantry
// client.
package diskpantryfx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pantrylabs/pantry"
	"github.com/pantrylabs/pantry/internal/monitor"
	"github.com/pantrylabs/pantry/internal/stats"
	"github.com/pantrylabs/pantry/internal/stats/logger"
)

// Config holds configuration for the disk-backed pantry client.
type Config struct {
	// CacheDir is the directory holding the durable tier.
	CacheDir string

	// MemoryCapacity is the number of entries cached in memory.
	// Default is 256.
	MemoryCapacity int

	// DefaultTTL is applied when a fetch does not specify one.
	// Default is five minutes.
	DefaultTTL time.Duration
}

// Module provides a disk-backed pantry client.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("diskpantry",
	fx.Provide(
		newStatsCollector,
		newMonitor,
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

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Monitor   *monitor.Monitor
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *pantry.Client
}

func newClient(p Params) (Result, error) {
	dirOpt, err := pantry.WithCacheDir(p.Config.CacheDir)
	if err != nil {
		return Result{}, err
	}

	opts := []pantry.Option{
		dirOpt,
		pantry.WithStats(p.Collector),
		pantry.WithMonitor(p.Monitor),
		pantry.WithLogger(p.Logger.Named("pantry")),
	}
	if p.Config.MemoryCapacity > 0 {
		opts = append(opts, pantry.WithMemoryCapacity(p.Config.MemoryCapacity))
	}
	if p.Config.DefaultTTL > 0 {
		opts = append(opts, pantry.WithDefaultTTL(p.Config.DefaultTTL))
	}

	client, err := pantry.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}
