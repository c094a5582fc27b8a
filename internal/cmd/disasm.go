// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disasmOptimizedFlag bool

var disasmCmd = &cobra.Command{
	GroupID: groupCore,
	Use:     "disasm [file]",
	Short:   "Print an instruction listing",
	Long: `Disassemble hex bytecode into one instruction per line. With --optimized the
listing shows the code after the transform: demoted pushes are marked '*' and
repaired jump targets '~'.`,
	Example: `  bunnyhop disasm build/Token.bin
  bunnyhop disasm build/Token.bin --optimized`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		runner, release := newRunner(false)
		defer release()

		listing, err := runner.Disassemble(cmd.Context(), input)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !disasmOptimizedFlag {
			printListing(out, listing.Before, listing.Before, false)
			return nil
		}

		printListing(out, listing.Before, listing.After, true)
		r := listing.Report
		fmt.Fprintf(out, "\n%d demotions, %d repairs, %d -> %d bytes\n",
			r.Demotions, r.Repairs, r.OriginalSize, r.OptimizedSize)
		return nil
	},
}

func init() {
	disasmCmd.Flags().BoolVar(&disasmOptimizedFlag, "optimized", false, "Show the listing after optimization with changes highlighted")
	rootCmd.AddCommand(disasmCmd)
}
