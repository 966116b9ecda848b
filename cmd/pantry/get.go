package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pantrylabs/pantry"
)

var getCmd = &cobra.Command{
	Use:   "get [URL]",
	Short: "Fetch a resource through the cache",
	Long: `Fetch a resource through the two-tier cache using the selected
strategy, writing the payload to stdout.

Strategies: cache-first, network-first, stale-while-revalidate,
network-only, cache-only.

Examples:
  pantry get https://example.com/feed.json
  pantry get --strategy cache-only --timing https://example.com/feed.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var (
	strategyName string
	entryTTL     time.Duration
	outputJSON   bool
	showTiming   bool
)

func init() {
	getCmd.Flags().StringVar(&strategyName, "strategy", "cache-first", "fetch strategy")
	getCmd.Flags().DurationVar(&entryTTL, "ttl", 5*time.Minute, "entry time-to-live")
	getCmd.Flags().BoolVar(&outputJSON, "json", false, "wrap output in a JSON envelope")
	getCmd.Flags().BoolVar(&showTiming, "timing", false, "show fetch timing on stderr")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	url := args[0]

	strategy, err := pantry.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	start := time.Now()

	data, err := client.Fetch(ctx, url, pantry.FetchOptions{
		Strategy: strategy,
		TTL:      entryTTL,
	})
	if err != nil {
		if errors.Is(err, pantry.ErrNoData) {
			return fmt.Errorf("no cached data for %s", url)
		}
		return fmt.Errorf("fetch failed: %w", err)
	}

	elapsed := time.Since(start)

	if outputJSON {
		fmt.Printf(`{"url":%q,"bytes":%d,"elapsed_ms":%d}`+"\n", url, len(data), elapsed.Milliseconds())
	} else {
		os.Stdout.Write(data)
	}
	if showTiming {
		fmt.Fprintf(os.Stderr, "fetched %d bytes in %s\n", len(data), elapsed)
	}

	return nil
}

// newClient builds a disk-backed client rooted at --cache-dir.
func newClient(extra ...pantry.Option) (*pantry.Client, error) {
	dirOpt, err := pantry.WithCacheDir(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("opening cache directory: %w", err)
	}
	opts := append([]pantry.Option{dirOpt, pantry.WithLogger(newLogger())}, extra...)
	client, err := pantry.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client, nil
}
