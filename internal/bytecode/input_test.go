// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package bytecode

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/bunnyhop/internal/errors"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "6001", Normalize("6001"))
	assert.Equal(t, "6001", Normalize("0x6001"))
	assert.Equal(t, "6001", Normalize("0X6001"))
	assert.Equal(t, "6001", Normalize("  6001\n"))
	assert.Equal(t, "", Normalize("0x"))
}

func TestDecode(t *testing.T) {
	code, err := Decode("0x610004565B")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x61, 0x00, 0x04, 0x56, 0x5b}, code)
}

func TestDecode_EmptyIsEmptyProgram(t *testing.T) {
	for _, in := range []string{"", "0x", "  \n"} {
		code, err := Decode(in)
		require.NoError(t, err, "input %q", in)
		assert.Empty(t, code)
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("abc")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidHex))

	_, err = Decode("60 01")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidHex))
}

func TestSplitRuntime(t *testing.T) {
	ctor, runtime, found := SplitRuntime("600880600e3d393df3610004565b5f5ff3\n")

	assert.True(t, found)
	assert.Equal(t, "600880600e3d393df3", ctor)
	assert.Equal(t, "610004565b5f5ff3", runtime)
}

func TestSplitRuntime_NoMarker(t *testing.T) {
	ctor, runtime, found := SplitRuntime("0x610004565b5f5ff3")

	assert.False(t, found)
	assert.Empty(t, ctor)
	assert.Equal(t, "610004565b5f5ff3", runtime)
}

func TestSplitRuntime_UppercaseMarker(t *testing.T) {
	_, runtime, found := SplitRuntime("3D393DF35b00")

	assert.True(t, found)
	assert.Equal(t, "5b00", runtime)
}

func TestSplitRuntime_IgnoresMisalignedMatch(t *testing.T) {
	// PUSH4 0xd393df30 holds the marker text starting at an odd nibble.
	ctor, runtime, found := SplitRuntime("63d393df3000")

	assert.False(t, found)
	assert.Empty(t, ctor)
	assert.Equal(t, "63d393df3000", runtime)
}
