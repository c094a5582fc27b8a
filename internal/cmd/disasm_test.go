// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisasm_Listing(t *testing.T) {
	setupCLI(t)

	out, _, err := runCLI(t, context.Background(), testRuntime, "disasm")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "  000000  PUSH2    0x0004", lines[0])
	assert.Equal(t, "  000003  JUMP", lines[1])
	assert.Equal(t, "  000004  JUMPDEST", lines[2])
}

func TestDisasm_OptimizedHighlightsChanges(t *testing.T) {
	setupCLI(t)

	out, _, err := runCLI(t, context.Background(), "6100095661000957005b00", "disasm", "--optimized")
	require.NoError(t, err)

	assert.Contains(t, out, "* 000000  PUSH1    0x07  ; was PUSH2    0x0009")
	assert.Contains(t, out, "* 000003  PUSH1    0x07  ; was PUSH2    0x0009")
	assert.Contains(t, out, "  000007  JUMPDEST")
	assert.Contains(t, out, "2 demotions, 4 repairs, 11 -> 9 bytes")
}

func TestDisasm_OptimizedMarksRepairedTargets(t *testing.T) {
	setupCLI(t)

	code := "610007" + "56" + "610108" + "5b" + "56" + strings.Repeat("00", 255) + "5b00"
	out, _, err := runCLI(t, context.Background(), code, "disasm", "--optimized")
	require.NoError(t, err)

	assert.Contains(t, out, "* 000000  PUSH1    0x06  ; was PUSH2    0x0007")
	assert.Contains(t, out, "~ 000003  PUSH2    0x0107  ; was PUSH2    0x0108")
	assert.Contains(t, out, "  000107  JUMPDEST")
	assert.Contains(t, out, "1 demotions, 2 repairs, 266 -> 265 bytes")
}

func TestDisasm_TruncatedPush(t *testing.T) {
	setupCLI(t)

	_, _, err := runCLI(t, context.Background(), "6100", "disasm")
	assert.Error(t, err)
}
