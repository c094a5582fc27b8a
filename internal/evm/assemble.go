// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package evm

import (
	"github.com/ethereum/go-ethereum/common"
)

// Assemble concatenates the encoding of every instruction in order.
func Assemble(instructions []Instruction) []byte {
	size := 0
	for _, ins := range instructions {
		size += ins.Size()
	}
	out := make([]byte, 0, size)
	for _, ins := range instructions {
		out = append(out, OpcodeByte(ins.Op))
		out = append(out, ins.Immediate...)
	}
	return out
}

// AssembleHex is Assemble rendered as lowercase hex without a prefix.
func AssembleHex(instructions []Instruction) string {
	return common.Bytes2Hex(Assemble(instructions))
}

// CodeSize is the total encoded width of the sequence.
func CodeSize(instructions []Instruction) int {
	size := 0
	for _, ins := range instructions {
		size += ins.Size()
	}
	return size
}
