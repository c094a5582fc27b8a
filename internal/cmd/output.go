// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"github.com/dotandev/bunnyhop/internal/evm"
	"github.com/dotandev/bunnyhop/internal/optimizer"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgHiBlack)
	demotedColor = color.New(color.FgGreen, color.Bold)
	repairColor  = color.New(color.FgYellow)
)

func printBanner(w io.Writer) {
	titleColor.Fprintln(w, "bunnyhop")
	fmt.Fprintln(w, "Shrinks PUSH2 jump targets to PUSH1 in EVM bytecode.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  <hex bytecode> | bunnyhop")
	fmt.Fprintln(w, "  bunnyhop hop [file] [--stats] [-o out]")
	fmt.Fprintln(w, "  bunnyhop disasm [file] [--optimized]")
	fmt.Fprintln(w, "  bunnyhop daemon [--port 8545]")
	fmt.Fprintln(w)
	labelColor.Fprintln(w, "Run 'bunnyhop --help' for all commands.")
}

func printReport(w io.Writer, res *optimizer.Result) {
	r := res.Report
	titleColor.Fprintln(w, "Optimization report")

	fmt.Fprintf(w, "  %s %s\n", labelColor.Sprint("Original size: "), humanize.Bytes(uint64(r.OriginalSize)))
	fmt.Fprintf(w, "  %s %s", labelColor.Sprint("Optimized size:"), humanize.Bytes(uint64(r.OptimizedSize)))
	if r.Saved() > 0 && r.OriginalSize > 0 {
		pct := 100 * float64(r.Saved()) / float64(r.OriginalSize)
		fmt.Fprintf(w, " (%s)", demotedColor.Sprintf("-%d B, %.2f%%", r.Saved(), pct))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %d\n", labelColor.Sprint("Instructions:  "), r.Instructions)
	fmt.Fprintf(w, "  %s %d\n", labelColor.Sprint("Demotions:     "), r.Demotions)
	fmt.Fprintf(w, "  %s %d\n", labelColor.Sprint("Repairs:       "), r.Repairs)

	if res.MarkerFound {
		fmt.Fprintf(w, "  %s stripped %s of deployment code\n",
			labelColor.Sprint("Runtime split: "), humanize.Bytes(uint64(len(res.Constructor)/2)))
	}
	if res.Cached {
		fmt.Fprintf(w, "  %s hit\n", labelColor.Sprint("Cache:         "))
	}
}

func formatInstruction(ins evm.Instruction) string {
	if len(ins.Immediate) == 0 {
		return ins.Mnemonic()
	}
	return fmt.Sprintf("%-8s 0x%s", ins.Mnemonic(), common.Bytes2Hex(ins.Immediate))
}

// printListing writes one row per instruction. With highlight set, rows whose
// opcode or immediate differ from before are coloured and marked.
func printListing(w io.Writer, before, rows []evm.Instruction, highlight bool) {
	for i, ins := range rows {
		line := fmt.Sprintf("%06x  %s", ins.Offset, formatInstruction(ins))
		if !highlight {
			fmt.Fprintf(w, "  %s\n", line)
			continue
		}
		switch evm.Compare(before[i], ins) {
		case evm.Demoted:
			fmt.Fprintf(w, "* %s  %s\n", demotedColor.Sprint(line), labelColor.Sprintf("; was %s", formatInstruction(before[i])))
		case evm.Repaired:
			fmt.Fprintf(w, "~ %s  %s\n", repairColor.Sprint(line), labelColor.Sprintf("; was %s", formatInstruction(before[i])))
		default:
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
