// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package bytecode

import (
	"encoding/hex"
	"strings"

	"github.com/dotandev/bunnyhop/internal/errors"
)

// RuntimeMarker is the constructor tail RETURNDATASIZE CODECOPY
// RETURNDATASIZE RETURN that precedes runtime code in minimal deployers.
const RuntimeMarker = "3d393df3"

// Normalize trims surrounding whitespace and an optional 0x prefix.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return s
}

// Decode parses hex bytecode strictly. Odd length or a non-hex digit is an
// error; no bytes are dropped. Empty input is an empty program.
func Decode(s string) ([]byte, error) {
	code, err := hex.DecodeString(Normalize(s))
	if err != nil {
		return nil, errors.WrapInvalidHex(err)
	}
	return code, nil
}

// SplitRuntime separates deployment code at the first byte-aligned
// RuntimeMarker. Without a marker the whole input is runtime code.
func SplitRuntime(s string) (constructor, runtime string, found bool) {
	s = Normalize(s)
	lower := strings.ToLower(s)
	for from := 0; from < len(lower); {
		i := strings.Index(lower[from:], RuntimeMarker)
		if i < 0 {
			break
		}
		at := from + i
		if at%2 == 0 {
			end := at + len(RuntimeMarker)
			return s[:end], s[end:], true
		}
		from = at + 1
	}
	return "", s, false
}
