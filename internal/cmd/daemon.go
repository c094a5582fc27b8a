// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotandev/bunnyhop/internal/daemon"
)

var (
	daemonPort      string
	daemonAuthToken string
)

var daemonCmd = &cobra.Command{
	GroupID: groupService,
	Use:     "daemon",
	Short:   "Start JSON-RPC server for remote optimization",
	Long: `Start a JSON-RPC 2.0 server that exposes bunnyhop to build tools and IDEs.

Endpoints:
  POST /rpc     bunnyhop.Optimize, bunnyhop.Disassemble
  GET  /health  liveness probe

Example:
  bunnyhop daemon --port 8545
  bunnyhop daemon --port 8545 --auth-token secret123`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.DaemonPort
		if cmd.Flags().Changed("port") {
			port = daemonPort
		}
		token := cfg.AuthToken
		if cmd.Flags().Changed("auth-token") {
			token = daemonAuthToken
		}

		runner, release := newRunner(true)
		defer release()

		server := daemon.NewServer(runner, daemon.Config{Port: port, AuthToken: token})

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Starting bunnyhop daemon on port %s\n", port)
		if token != "" {
			fmt.Fprintln(out, "Authentication: enabled")
		}
		if cfg.CacheEnabled {
			fmt.Fprintf(out, "Cache: %s\n", cfg.CachePath)
		}

		return server.Start(cmd.Context(), port)
	},
}

func init() {
	daemonCmd.Flags().StringVarP(&daemonPort, "port", "p", "8545", "Port to listen on")
	daemonCmd.Flags().StringVar(&daemonAuthToken, "auth-token", "", "Bearer token required on every RPC call")

	rootCmd.AddCommand(daemonCmd)
}
