// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const (
	testDeployer = "600880600e3d393df3"
	testRuntime  = "610004565b5f5ff3"
	testHopped   = "6003565b5f5ff3"
)

type cliEnv struct {
	dir       string
	cachePath string
}

// setupCLI points config at a private file so tests never touch $HOME or the
// network.
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{dir: dir, cachePath: filepath.Join(dir, "cache.db")}

	cfgPath := filepath.Join(dir, "bunnyhop.toml")
	body := fmt.Sprintf("cache_path = %q\nupdate_check = false\n", env.cachePath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	t.Setenv("HOME", dir)
	t.Setenv("BUNNYHOP_CONFIG", cfgPath)
	for _, key := range []string{
		"BUNNYHOP_LOG_LEVEL", "BUNNYHOP_LOG_FORMAT", "BUNNYHOP_CACHE_PATH",
		"BUNNYHOP_CACHE", "BUNNYHOP_SPLIT_RUNTIME", "BUNNYHOP_TRACING",
		"BUNNYHOP_DAEMON_PORT", "BUNNYHOP_AUTH_TOKEN", "BUNNYHOP_CACHE_MAX_ENTRIES",
	} {
		t.Setenv(key, "")
	}

	t.Setenv("FORCE_COLOR", "")
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	return env
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}
