// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/bunnyhop/internal/bunnyhop"
	"github.com/dotandev/bunnyhop/internal/bytecode"
	"github.com/dotandev/bunnyhop/internal/cache"
	"github.com/dotandev/bunnyhop/internal/evm"
	"github.com/dotandev/bunnyhop/internal/logger"
	"github.com/dotandev/bunnyhop/internal/telemetry"
)

// Options configures a Runner.
type Options struct {
	// SplitRuntime drops deployment code up to and including the 3d393df3
	// marker before optimizing.
	SplitRuntime bool
	// Cache is optional; a nil store disables result caching.
	Cache *cache.Store
	// MaxEntries bounds the cache after each insert. Zero means unbounded.
	MaxEntries int
}

// Result is the outcome of one optimization request.
type Result struct {
	// Constructor is the stripped deployment prefix, empty when no marker
	// was found or splitting is off.
	Constructor string
	MarkerFound bool
	// Input is the normalized runtime hex that was optimized.
	Input  string
	Output string
	Report bunnyhop.Report
	Cached bool
}

// Listing pairs a disassembly with its optimized form. Both slices have the
// same length and are index-aligned.
type Listing struct {
	Before []evm.Instruction
	After  []evm.Instruction
	Report bunnyhop.Report
}

// Runner turns raw hex input into optimized runtime code.
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts}
}

func (r *Runner) runtimePart(input string) (ctor, runtime string, found bool) {
	if !r.opts.SplitRuntime {
		return "", bytecode.Normalize(input), false
	}
	return bytecode.SplitRuntime(input)
}

// Run optimizes input and returns the runtime code as lowercase hex.
func (r *Runner) Run(ctx context.Context, input string) (*Result, error) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.Start(ctx, "optimize_request")
	defer span.End()

	ctor, runtime, found := r.runtimePart(input)
	span.SetAttributes(attribute.Bool("input.marker_found", found))

	code, err := bytecode.Decode(runtime)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := &Result{
		Constructor: ctor,
		MarkerFound: found,
		Input:       common.Bytes2Hex(code),
	}

	key := cache.Key(code)
	useCache := r.opts.Cache != nil && len(code) > 0
	if useCache {
		entry, ok, err := r.opts.Cache.Get(ctx, key)
		if err != nil {
			logger.Logger.Warn("Cache lookup failed, optimizing without cache", "error", err)
		} else if ok {
			logger.Logger.Debug("Cache hit", "key", key, "hits", entry.Hits)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			res.Output = entry.Output
			res.Report = entry.Report
			res.Cached = true
			return res, nil
		}
	}

	out, report, err := bunnyhop.Optimize(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	res.Output = common.Bytes2Hex(out)
	res.Report = report

	logger.Logger.Info("Optimized bytecode",
		"original_size", report.OriginalSize,
		"optimized_size", report.OptimizedSize,
		"demotions", report.Demotions,
		"repairs", report.Repairs,
	)

	if useCache {
		r.store(ctx, key, res)
	}
	return res, nil
}

func (r *Runner) store(ctx context.Context, key string, res *Result) {
	err := r.opts.Cache.Put(ctx, &cache.Entry{
		Key:        key,
		Output:     res.Output,
		InputSize:  res.Report.OriginalSize,
		OutputSize: res.Report.OptimizedSize,
		Report:     res.Report,
	})
	if err != nil {
		logger.Logger.Warn("Failed to cache result", "error", err)
		return
	}
	if _, err := r.opts.Cache.Prune(ctx, r.opts.MaxEntries); err != nil {
		logger.Logger.Warn("Failed to prune cache", "error", err)
	}
}

// Disassemble decodes input (after the runtime split, if enabled) and
// returns the instruction listing before and after optimization.
func (r *Runner) Disassemble(ctx context.Context, input string) (*Listing, error) {
	_, span := telemetry.GetTracer().Start(ctx, "disassemble_request")
	defer span.End()

	_, runtime, _ := r.runtimePart(input)
	code, err := bytecode.Decode(runtime)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	before, err := evm.Disassemble(code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	hopped := evm.Clone(before)
	report := bunnyhop.Hop(hopped)

	// The engine leaves the offset of each demoted jump stale; re-read the
	// emitted code so the listing shows real positions.
	after, err := evm.Disassemble(evm.Assemble(hopped))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("code.instructions", len(before)))

	return &Listing{Before: before, After: after, Report: report}, nil
}
