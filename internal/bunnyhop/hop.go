// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

// Package bunnyhop shrinks PUSH2 jump targets to PUSH1 and repairs the jump
// targets displaced by each shrink until no candidate is left.
package bunnyhop

import (
	"slices"

	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/dotandev/bunnyhop/internal/evm"
)

// Round describes one demotion and the repairs it triggered.
type Round struct {
	// Index is the position of the demoted push in the instruction slice.
	Index int `json:"index"`
	// Offset is the code offset of the demoted push.
	Offset uint32 `json:"offset"`
	// Target is the value pushed, unchanged by the demotion itself.
	Target uint32 `json:"target"`
	// Displaced counts JUMPDESTs whose offset moved.
	Displaced int `json:"displaced"`
	// Repaired counts jump-target pushes decremented in this round.
	Repaired int `json:"repaired"`
}

// Report summarizes a transform run.
type Report struct {
	Instructions  int     `json:"instructions"`
	OriginalSize  int     `json:"original_size"`
	OptimizedSize int     `json:"optimized_size"`
	Demotions     int     `json:"demotions"`
	Repairs       int     `json:"repairs"`
	Rounds        []Round `json:"rounds,omitempty"`
}

// Saved is the number of bytes removed.
func (r Report) Saved() int {
	return r.OriginalSize - r.OptimizedSize
}

// Hop rewrites instructions in place until no PUSH2 0x00XX sits directly
// before a JUMP or JUMPI. The slice length never changes.
func Hop(instructions []evm.Instruction) Report {
	report := Report{
		Instructions: len(instructions),
		OriginalSize: evm.CodeSize(instructions),
	}

	for {
		p := findCandidate(instructions)
		if p < 0 {
			break
		}
		report.Rounds = append(report.Rounds, hopOnce(instructions, p))
	}

	for _, r := range report.Rounds {
		report.Demotions++
		report.Repairs += r.Repaired
	}
	report.OptimizedSize = evm.CodeSize(instructions)
	return report
}

// findCandidate returns the index of the first demotable push followed by a
// jump, or -1.
func findCandidate(instructions []evm.Instruction) int {
	for i := 1; i < len(instructions); i++ {
		if instructions[i].IsJump() && instructions[i-1].Demotable() {
			return i - 1
		}
	}
	return -1
}

func hopOnce(instructions []evm.Instruction, p int) Round {
	push := &instructions[p]
	round := Round{
		Index:  p,
		Offset: push.Offset,
		Target: push.InputValue(),
	}
	push.Demote()

	// The jump at p+1 keeps its stale offset; nothing reads it.
	var displaced []uint32
	for i := p + 2; i < len(instructions); i++ {
		if instructions[i].Op == vm.JUMPDEST {
			displaced = append(displaced, instructions[i].Offset)
		}
		instructions[i].DecrementOffset()
	}
	round.Displaced = len(displaced)
	if len(displaced) == 0 {
		return round
	}

	for j := 0; j < len(instructions)-1; j++ {
		if !instructions[j+1].IsJump() {
			continue
		}
		ins := &instructions[j]
		if !ins.IsJumpTargetPush() {
			continue
		}
		if slices.Contains(displaced, ins.InputValue()) {
			ins.DecrementInput()
			round.Repaired++
		}
	}
	return round
}
