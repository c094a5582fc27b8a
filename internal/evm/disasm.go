// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package evm

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/core/asm"

	"github.com/dotandev/bunnyhop/internal/errors"
)

// Disassemble decodes legacy EVM code into its instruction sequence.
// A truncated push fails the whole decode.
func Disassemble(code []byte) ([]Instruction, error) {
	if uint64(len(code)) > math.MaxUint32 {
		return nil, errors.WrapDisassembly(fmt.Errorf("code of %d bytes exceeds 32-bit offsets", len(code)))
	}

	out := make([]Instruction, 0, len(code)/2+1)
	it := asm.NewInstructionIterator(code)
	for it.Next() {
		out = append(out, NewInstruction(it.PC(), it.Op(), it.Arg()))
	}
	if err := it.Error(); err != nil {
		return nil, errors.WrapDisassembly(err)
	}
	return out, nil
}
