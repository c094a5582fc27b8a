// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotandev/bunnyhop/internal/cache"
	"github.com/dotandev/bunnyhop/internal/logger"
	"github.com/dotandev/bunnyhop/internal/optimizer"
	"github.com/dotandev/bunnyhop/internal/terminal"
)

// stdinIsTerminal reports whether the command reads from an interactive
// terminal. Readers that are not files are treated as piped.
func stdinIsTerminal(cmd *cobra.Command) bool {
	return terminal.IsTerminal(cmd.InOrStdin())
}

// readInput returns the hex text from the named file, or stdin when no file
// (or "-") is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

// newRunner builds a Runner from the resolved config. An unusable cache is
// logged and skipped. The returned func releases the cache.
func newRunner(useCache bool) (*optimizer.Runner, func()) {
	opts := optimizer.Options{
		SplitRuntime: cfg.SplitRuntime,
		MaxEntries:   cfg.CacheMaxEntries,
	}
	release := func() {}

	if useCache && cfg.CacheEnabled {
		store, err := cache.Open(cfg.CachePath)
		if err != nil {
			logger.Logger.Warn("Cache unavailable, continuing without it", "path", cfg.CachePath, "error", err)
		} else {
			opts.Cache = store
			release = closeStoreOnShutdown(store)
		}
	}
	return optimizer.NewRunner(opts), release
}
