// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dotandev/bunnyhop/internal/cmd"
	"github.com/dotandev/bunnyhop/internal/crashreport"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	commitSHA = "unknown"
)

func main() {
	// Set version in cmd package (used by 'version' and the async update check)
	cmd.Version = Version

	reporter := crashreport.New(crashreport.Config{
		Version:   Version,
		CommitSHA: commitSHA,
	})

	if err := run(reporter); err != nil {
		if cmd.IsInterrupted(err) {
			os.Exit(cmd.InterruptExitCode)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(reporter *crashreport.Reporter) error {
	// Only the subcommand path is reported so file paths never leave the host.
	defer reporter.HandlePanic(context.Background(), cmd.CommandPath(os.Args[1:]))
	return cmd.Execute()
}
