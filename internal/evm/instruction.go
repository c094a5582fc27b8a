// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package evm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
)

// maxValueWidth is the widest immediate that can be read as a code offset.
const maxValueWidth = 4

// Instruction is one decoded operation in a code stream.
type Instruction struct {
	Op        vm.OpCode
	Offset    uint32
	Immediate []byte
}

// NewInstruction copies a decoded operation. The immediate is never aliased
// with the source code buffer.
func NewInstruction(pc uint64, op vm.OpCode, arg []byte) Instruction {
	ins := Instruction{
		Op:     op,
		Offset: uint32(pc),
	}
	if len(arg) > 0 {
		ins.Immediate = append([]byte(nil), arg...)
	}
	return ins
}

// Size is the encoded width in bytes.
func (i Instruction) Size() int {
	return 1 + len(i.Immediate)
}

// IsJump reports whether the instruction is JUMP or JUMPI.
func (i Instruction) IsJump() bool {
	return i.Op == vm.JUMP || i.Op == vm.JUMPI
}

// IsJumpTargetPush reports whether the instruction is a PUSH1 or PUSH2, the
// only widths whose values are tracked as jump targets.
func (i Instruction) IsJumpTargetPush() bool {
	return i.Op == vm.PUSH1 || i.Op == vm.PUSH2
}

// Demotable reports whether the instruction is a PUSH2 with a zero high byte.
func (i Instruction) Demotable() bool {
	return i.Op == vm.PUSH2 && len(i.Immediate) == 2 && i.Immediate[0] == 0
}

// InputValue reads the immediate as a big-endian unsigned integer.
// Immediates wider than four bytes are not offsets and cause a panic.
func (i Instruction) InputValue() uint32 {
	if len(i.Immediate) > maxValueWidth {
		panic(fmt.Sprintf("evm: immediate of %s at %d is %d bytes wide", i.Mnemonic(), i.Offset, len(i.Immediate)))
	}
	var buf [maxValueWidth]byte
	copy(buf[maxValueWidth-len(i.Immediate):], i.Immediate)
	return binary.BigEndian.Uint32(buf[:])
}

// Demote narrows a PUSH2 0x00XX to PUSH1 0xXX.
func (i *Instruction) Demote() {
	if i.Op != vm.PUSH2 {
		panic(fmt.Sprintf("evm: cannot demote %s at %d, only PUSH2 is demotable", i.Mnemonic(), i.Offset))
	}
	if !i.Demotable() {
		panic(fmt.Sprintf("evm: cannot demote PUSH2 0x%x at %d, high byte is not zero", i.Immediate, i.Offset))
	}
	i.Op = vm.PUSH1
	i.Immediate = []byte{i.Immediate[1]}
}

// DecrementOffset moves the instruction one byte towards the start of code.
func (i *Instruction) DecrementOffset() {
	if i.Offset == 0 {
		panic("evm: offset underflow at position 0")
	}
	i.Offset--
}

// DecrementInput subtracts one from the immediate, keeping its width.
func (i *Instruction) DecrementInput() {
	width := len(i.Immediate)
	value := i.InputValue()
	if value == 0 {
		panic(fmt.Sprintf("evm: immediate underflow on %s at %d", i.Mnemonic(), i.Offset))
	}
	var buf [maxValueWidth]byte
	binary.BigEndian.PutUint32(buf[:], value-1)
	i.Immediate = append(i.Immediate[:0], buf[maxValueWidth-width:]...)
}

// Bytes encodes the opcode byte followed by the immediate.
func (i Instruction) Bytes() []byte {
	out := make([]byte, 0, i.Size())
	out = append(out, OpcodeByte(i.Op))
	return append(out, i.Immediate...)
}

// Mnemonic returns the symbolic name of the opcode.
func (i Instruction) Mnemonic() string {
	return Mnemonic(i.Op)
}

// String renders the encoded bytes as lowercase hex.
func (i Instruction) String() string {
	return common.Bytes2Hex(i.Bytes())
}

// Clone deep-copies a sequence so one copy can be rewritten while the other
// is kept for comparison.
func Clone(instructions []Instruction) []Instruction {
	out := make([]Instruction, len(instructions))
	for i, ins := range instructions {
		out[i] = ins
		if ins.Immediate != nil {
			out[i].Immediate = append([]byte(nil), ins.Immediate...)
		}
	}
	return out
}

// Change is how a rewritten instruction differs from its original.
type Change int

const (
	Unchanged Change = iota
	// Demoted means the opcode was narrowed, e.g. PUSH2 to PUSH1.
	Demoted
	// Repaired means only the immediate changed.
	Repaired
)

func (c Change) String() string {
	switch c {
	case Demoted:
		return "demoted"
	case Repaired:
		return "repaired"
	default:
		return "unchanged"
	}
}

// Compare reports how after differs from before. Offsets are ignored.
func Compare(before, after Instruction) Change {
	switch {
	case before.Op != after.Op:
		return Demoted
	case !bytes.Equal(before.Immediate, after.Immediate):
		return Repaired
	default:
		return Unchanged
	}
}
