package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags.
	cacheDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "pantry",
	Short: "Strategy-driven fetching through a two-tier resource cache",
	Long: `Pantry fetches HTTP resources through a two-tier cache: a bounded
in-memory tier in front of a durable on-disk tier with per-key expiration.

Examples:
  # Fetch a resource, serving from cache when fresh
  pantry get https://example.com/feed.json

  # Force a network fetch, falling back to cache on failure
  pantry get --strategy network-first https://example.com/feed.json

  # Prefetch a set of resources
  pantry warm https://example.com/a.json https://example.com/b.json

  # Inspect the on-disk cache
  pantry stats

  # Sweep expired entries
  pantry clean`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cacheDir, "cache-dir", "c", "./pantry-cache", "directory holding the on-disk cache")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger returns a development logger when --verbose is set.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
