// Package main provides the pantry CLI tool for fetching resources through
// a two-tier cache and inspecting the cache on disk.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
