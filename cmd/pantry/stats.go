package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pantrylabs/pantry/internal/tier/disktier"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the on-disk cache",
	Long: `Display statistics about the on-disk cache including:
- Number of entries
- Total size on disk
- Cache format version`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	objectsDir := filepath.Join(cacheDir, disktier.Namespace, "objects")

	// Check if the cache directory exists.
	if _, err := os.Stat(objectsDir); os.IsNotExist(err) {
		return fmt.Errorf("cache directory %q does not exist; run 'pantry get' or 'pantry warm' first", cacheDir)
	}

	entries, err := os.ReadDir(objectsDir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	var entryCount int
	var totalSize int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entryCount++
		info, err := entry.Info()
		if err != nil {
			continue
		}
		totalSize += info.Size()
	}

	if entryCount == 0 {
		fmt.Println("No entries found in cache directory.")
		fmt.Println("Run 'pantry warm' to prefetch resources.")
		return nil
	}

	fmt.Printf("Cache directory: %s\n", cacheDir)
	fmt.Printf("Format version:  %s\n", disktier.Namespace)
	fmt.Printf("Entries:         %d\n", entryCount)
	fmt.Printf("Total size:      %s\n", formatBytes(totalSize))

	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
