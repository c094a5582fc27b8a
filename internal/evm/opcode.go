// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"
)

// OpcodeByte maps an opcode to its encoded byte.
func OpcodeByte(op vm.OpCode) byte {
	return byte(op)
}

// Mnemonic returns the symbolic name of op, or INVALID_0xNN for bytes that
// have no defined instruction.
func Mnemonic(op vm.OpCode) string {
	if _, ok := LookupMnemonic(op.String()); ok {
		return op.String()
	}
	return fmt.Sprintf("INVALID_0x%02x", byte(op))
}

// LookupMnemonic resolves a symbolic name such as "push2" to its opcode.
func LookupMnemonic(name string) (vm.OpCode, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "SHA3" {
		name = "KECCAK256"
	}
	op := vm.StringToOp(name)
	if op == vm.STOP && name != "STOP" {
		return 0, false
	}
	return op, true
}

// ImmediateSize is the number of immediate bytes following op in legacy code.
func ImmediateSize(op vm.OpCode) int {
	if op.IsPush() {
		return int(op - vm.PUSH0)
	}
	return 0
}
