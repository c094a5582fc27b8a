// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dotandev/bunnyhop/internal/cache"
)

var (
	cacheForceFlag      bool
	cacheMaxEntriesFlag int
)

var cacheCmd = &cobra.Command{
	GroupID: groupUtility,
	Use:     "cache",
	Short:   "Manage the optimization result cache",
	Long: `Manage the local SQLite cache that stores optimization results keyed by the
keccak256 hash of the runtime code.

Cache location: ~/.bunnyhop/cache.db (configurable via BUNNYHOP_CACHE_PATH)`,
	Example: `  bunnyhop cache status
  bunnyhop cache prune --max-entries 500
  bunnyhop cache clear --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func openCache() (*cache.Store, error) {
	return cache.Open(cfg.CachePath)
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		titleColor.Fprintln(out, "Cache status")
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("Location:   "), store.Path())
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("Entries:    "), humanize.Comma(int64(st.Entries)))
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("Hits:       "), humanize.Comma(int64(st.Hits)))
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("Bytes saved:"), humanize.Bytes(uint64(st.BytesSaved)))
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("File size:  "), humanize.Bytes(uint64(st.FileSize)))
		if !cfg.CacheEnabled {
			fmt.Fprintln(out, "  (caching is disabled in the current configuration)")
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheForceFlag {
			return fmt.Errorf("refusing to clear %s without --force", cfg.CachePath)
		}
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results\n", n)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Keep only the most recently used results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := cfg.CacheMaxEntries
		if cmd.Flags().Changed("max-entries") {
			limit = cacheMaxEntriesFlag
		}
		if limit <= 0 {
			return fmt.Errorf("--max-entries must be positive, got %d", limit)
		}

		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Prune(cmd.Context(), limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results (limit %d)\n", n, limit)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().BoolVarP(&cacheForceFlag, "force", "f", false, "Skip the safety check")
	cachePruneCmd.Flags().IntVar(&cacheMaxEntriesFlag, "max-entries", 0, "Entries to keep (default from config)")

	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
