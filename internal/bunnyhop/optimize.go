// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package bunnyhop

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/bunnyhop/internal/bytecode"
	"github.com/dotandev/bunnyhop/internal/evm"
	"github.com/dotandev/bunnyhop/internal/logger"
	"github.com/dotandev/bunnyhop/internal/telemetry"
)

// Optimize decodes code, runs Hop and re-assembles the result.
func Optimize(ctx context.Context, code []byte) ([]byte, Report, error) {
	tracer := telemetry.GetTracer()
	_, span := tracer.Start(ctx, "bunnyhop_optimize")
	defer span.End()

	instructions, err := evm.Disassemble(code)
	if err != nil {
		span.RecordError(err)
		return nil, Report{}, err
	}

	report := Hop(instructions)
	for _, r := range report.Rounds {
		logger.Logger.Debug("Demoted jump target push",
			"index", r.Index,
			"offset", r.Offset,
			"target", r.Target,
			"displaced", r.Displaced,
			"repaired", r.Repaired,
		)
	}

	span.SetAttributes(
		attribute.Int("code.instructions", report.Instructions),
		attribute.Int("code.original_size", report.OriginalSize),
		attribute.Int("code.optimized_size", report.OptimizedSize),
		attribute.Int("hop.demotions", report.Demotions),
		attribute.Int("hop.repairs", report.Repairs),
	)

	return evm.Assemble(instructions), report, nil
}

// OptimizeHex is Optimize over hex text. The result is lowercase hex with no
// prefix.
func OptimizeHex(ctx context.Context, hexCode string) (string, Report, error) {
	code, err := bytecode.Decode(hexCode)
	if err != nil {
		return "", Report{}, err
	}
	out, report, err := Optimize(ctx, code)
	if err != nil {
		return "", Report{}, err
	}
	return common.Bytes2Hex(out), report, nil
}
