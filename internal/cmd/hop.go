// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotandev/bunnyhop/internal/logger"
)

var (
	hopStatsFlag   bool
	hopNoCacheFlag bool
	hopOutputFlag  string
)

type hopOptions struct {
	useCache bool
	stats    bool
	output   string
}

var hopCmd = &cobra.Command{
	GroupID: groupCore,
	Use:     "hop [file]",
	Short:   "Optimize bytecode from a file or stdin",
	Long: `Read hex bytecode, strip the deployer prefix (unless --no-split), shrink
jump-target pushes and print the optimized runtime code as lowercase hex.`,
	Example: `  bunnyhop hop build/Token.bin
  bunnyhop hop build/Token.bin --stats -o build/Token.hop.bin
  cat Token.bin | bunnyhop hop --no-cache`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHop(cmd, args, hopOptions{
			useCache: !hopNoCacheFlag,
			stats:    hopStatsFlag,
			output:   hopOutputFlag,
		})
	},
}

func runHop(cmd *cobra.Command, args []string, opts hopOptions) error {
	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	runner, release := newRunner(opts.useCache)
	defer release()

	res, err := runner.Run(cmd.Context(), input)
	if err != nil {
		return err
	}
	if res.Report.Instructions == 0 {
		logger.Logger.Warn("No runtime code to optimize", "marker_found", res.MarkerFound)
	}

	if opts.stats {
		printReport(cmd.ErrOrStderr(), res)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(res.Output+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.output, err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	return err
}

func init() {
	hopCmd.Flags().BoolVar(&hopStatsFlag, "stats", false, "Print the optimization report to stderr")
	hopCmd.Flags().BoolVar(&hopNoCacheFlag, "no-cache", false, "Bypass the result cache")
	hopCmd.Flags().StringVarP(&hopOutputFlag, "output", "o", "", "Write the optimized hex to a file instead of stdout")

	rootCmd.AddCommand(hopCmd)
}
