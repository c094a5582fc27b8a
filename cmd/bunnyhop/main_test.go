// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binName := "bunnyhop"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), binName)

	cmd := exec.Command("go", "build", "-o", binPath, ".")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to build bunnyhop binary: %v\nstderr:\n%s", err, stderr.String())
	}
	return binPath
}

type result struct {
	stdout, stderr string
	exitCode       int
}

func runBinary(t *testing.T, binPath, stdin string, args ...string) result {
	t.Helper()
	home := t.TempDir()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"BUNNYHOP_CONFIG=",
		"BUNNYHOP_CACHE_PATH="+filepath.Join(home, "cache.db"),
		"BUNNYHOP_NO_UPDATE_CHECK=1",
	)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}
	return result{stdout: stdout.String(), stderr: stderr.String(), exitCode: code}
}

func TestBinary_CLISurface(t *testing.T) {
	binPath := buildBinary(t)

	t.Run("filter", func(t *testing.T) {
		res := runBinary(t, binPath, "600880600e3d393df3610004565b5f5ff3\n")
		assert.Equal(t, 0, res.exitCode)
		assert.Equal(t, "6003565b5f5ff3\n", res.stdout)
	})

	t.Run("bad input exits 1", func(t *testing.T) {
		res := runBinary(t, binPath, "zz")
		assert.Equal(t, 1, res.exitCode)
		assert.Empty(t, res.stdout)
		assert.Contains(t, res.stderr, "Error: invalid hex bytecode")
	})

	for _, args := range [][]string{
		{"--help"},
		{"version"},
		{"hop", "--help"},
		{"disasm", "--help"},
		{"daemon", "--help"},
		{"cache", "--help"},
		{"cache", "status"},
		{"completion", "bash"},
	} {
		args := args
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			res := runBinary(t, binPath, "", args...)
			assert.Equal(t, 0, res.exitCode, res.stderr)
		})
	}
}
