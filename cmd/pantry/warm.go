package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pantrylabs/pantry"
)

var warmCmd = &cobra.Command{
	Use:   "warm [URL...]",
	Short: "Prefetch resources into the cache",
	Long: `Prefetch the given URLs into the cache so later gets are served
locally. Failures are reported but do not abort the remaining fetches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWarm,
}

var (
	warmTTL      time.Duration
	warmParallel int
)

func init() {
	warmCmd.Flags().DurationVar(&warmTTL, "ttl", 5*time.Minute, "entry time-to-live")
	warmCmd.Flags().IntVar(&warmParallel, "parallel", 8, "number of concurrent prefetches")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	client, err := newClient(pantry.WithWarmParallelism(warmParallel))
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	if err := client.Warm(context.Background(), args, warmTTL); err != nil {
		return err
	}
	fmt.Printf("warmed %d resources in %s\n", len(args), time.Since(start))
	return nil
}
