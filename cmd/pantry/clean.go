package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired entries from the cache",
	Long: `Sweep the cache and remove entries whose TTL has elapsed.

With --all, the entire cache is emptied instead.`,
	RunE: runClean,
}

var cleanAll bool

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove all entries, not just expired ones")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()

	if cleanAll {
		if err := client.Clear(ctx); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	}

	removed, err := client.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweeping cache: %w", err)
	}
	fmt.Printf("removed %d expired entries\n", removed)
	return nil
}
