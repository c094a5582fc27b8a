// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/bunnyhop/internal/config"
	"github.com/dotandev/bunnyhop/internal/logger"
	"github.com/dotandev/bunnyhop/internal/shutdown"
	"github.com/dotandev/bunnyhop/internal/telemetry"
	"github.com/dotandev/bunnyhop/internal/terminal"
	"github.com/dotandev/bunnyhop/internal/updater"
)

// Global flag variables
var (
	LogLevelFlag string
	NoSplitFlag  bool
)

// InterruptExitCode is the conventional 128+SIGINT status.
const InterruptExitCode = 130

// ErrInterrupted is returned by Execute when a signal stopped the command.
var ErrInterrupted = stderrors.New("interrupt received")

func IsInterrupted(err error) bool {
	return stderrors.Is(err, ErrInterrupted)
}

// cfg is resolved once per invocation in PersistentPreRunE.
var cfg = config.DefaultConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bunnyhop",
	Short: "Shrink EVM jump-target pushes from PUSH2 to PUSH1",
	Long: `bunnyhop rewrites EVM bytecode so that every PUSH2 0x00XX directly in front
of a JUMP or JUMPI becomes PUSH1 0xXX. Each rewrite saves one byte; jump
targets displaced by the shift are repaired, and the process repeats until
nothing is left to shrink.

With no arguments bunnyhop acts as a filter: pipe creation or runtime code in
as hex, get optimized runtime code out.

Examples:
  solc --bin-runtime Token.sol | bunnyhop
  bunnyhop hop build/Token.bin --stats
  bunnyhop disasm build/Token.bin --optimized
  bunnyhop daemon --port 8545`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = LogLevelFlag
		}
		if NoSplitFlag {
			loaded.SplitRuntime = false
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		color.NoColor = !terminal.ColorEnabled(cmd.OutOrStdout())
		logger.Configure(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		if src := cfg.Source(); src != "" {
			logger.Logger.Debug("Loaded config file", "path", src)
		}

		if cfg.Tracing {
			cleanup, err := telemetry.Init(cmd.Context(), telemetry.Config{
				Enabled:     true,
				ExporterURL: cfg.OTLPURL,
				ServiceName: "bunnyhop",
				Version:     Version,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize telemetry: %w", err)
			}
			registerTelemetryHook(cleanup)
		}

		if cfg.UpdateCheck && !updater.Disabled() && cmd.Name() != versionCmd.Name() {
			checkForUpdatesAsync(cmd.Context())
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if stdinIsTerminal(cmd) {
			printBanner(cmd.OutOrStdout())
			return nil
		}
		return runHop(cmd, nil, hopOptions{useCache: true})
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives.
// This is called by main.main().
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	coordinator := shutdown.NewCoordinator()
	setShutdownCoordinator(coordinator)
	defer clearShutdownCoordinator()

	return executeWithSignals(ctx, cancel, sigCh, coordinator, func(execCtx context.Context) error {
		return rootCmd.ExecuteContext(execCtx)
	})
}

// CommandPath resolves args to the subcommand they invoke, e.g.
// "bunnyhop cache status". Flag values and positional arguments are dropped.
func CommandPath(args []string) string {
	c, _, err := rootCmd.Find(args)
	if err != nil || c == nil {
		return rootCmd.Name()
	}
	return c.CommandPath()
}

// executeWithSignals runs exec and then the shutdown hooks, either when exec
// returns or when a signal arrives first. A signal cancels exec's context and
// yields ErrInterrupted. A panic in exec is re-raised after the hooks run.
func executeWithSignals(
	ctx context.Context,
	cancel context.CancelFunc,
	sigCh <-chan os.Signal,
	coordinator *shutdown.Coordinator,
	exec func(context.Context) error,
) error {
	type outcome struct {
		err       error
		recovered any
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- outcome{recovered: v}
			}
		}()
		done <- outcome{err: exec(ctx)}
	}()

	select {
	case res := <-done:
		runShutdownHooksWithTimeout(coordinator, shutdownTimeout)
		if res.recovered != nil {
			// Re-raise on the caller's goroutine so main's crash handler sees it.
			panic(res.recovered)
		}
		return res.err
	case sig := <-sigCh:
		logger.Logger.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			logger.Logger.Warn("Command did not stop before shutdown timeout")
		}
		runShutdownHooksWithTimeout(coordinator, shutdownTimeout)
		return ErrInterrupted
	}
}

// checkForUpdatesAsync runs the update check in a goroutine to not block CLI startup
func checkForUpdatesAsync(ctx context.Context) {
	go updater.NewChecker(Version).CheckForUpdates(context.WithoutCancel(ctx))
}

const (
	groupCore    = "core"
	groupService = "service"
	groupUtility = "utility"
)

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Bytecode Commands:"},
		&cobra.Group{ID: groupService, Title: "Service Commands:"},
		&cobra.Group{ID: groupUtility, Title: "Utility Commands:"},
	)
	rootCmd.SetHelpCommandGroupID(groupUtility)
	rootCmd.SetCompletionCommandGroupID(groupUtility)

	rootCmd.PersistentFlags().StringVar(
		&LogLevelFlag,
		"log-level",
		"info",
		"Log level (debug, info, warn, error)",
	)

	rootCmd.PersistentFlags().BoolVar(
		&NoSplitFlag,
		"no-split",
		false,
		"Optimize the whole input instead of only the code after the 3d393df3 deployer tail",
	)
}
