// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/bunnyhop/internal/updater"
)

var (
	// Version will be set by the main package
	Version = "dev"

	versionCheckFlag bool

	// releaseURL is swapped out in tests.
	releaseURL = updater.ReleaseURL
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	GroupID: groupUtility,
	Use:     "version",
	Short:   "Print the version number of bunnyhop",
	Long:    `Display the current version of bunnyhop. With --check, also query the latest release.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bunnyhop version %s\n", Version)
		if !versionCheckFlag {
			return nil
		}

		latest, newer, err := updater.NewChecker(Version, updater.WithReleaseURL(releaseURL)).Latest(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}
		if newer {
			fmt.Fprintf(out, "%s %s is available\n", color.YellowString("update:"), latest)
		} else {
			fmt.Fprintf(out, "%s latest release is %s\n", color.GreenString("up to date:"), latest)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheckFlag, "check", false, "Query the latest published release")
	rootCmd.AddCommand(versionCmd)
}
