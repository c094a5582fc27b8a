// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is
var (
	ErrInvalidHex   = errors.New("invalid hex bytecode")
	ErrDisassembly  = errors.New("failed to disassemble bytecode")
	ErrConfig       = errors.New("configuration error")
	ErrValidation   = errors.New("validation error")
	ErrCache        = errors.New("result cache error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Wrap functions for consistent error wrapping
func WrapInvalidHex(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidHex, err)
}

func WrapDisassembly(err error) error {
	return fmt.Errorf("%w: %w", ErrDisassembly, err)
}

func WrapConfigError(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrConfig, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrConfig, msg, err)
}

func WrapValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func WrapCacheError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCache, op, err)
}

func WrapUnauthorized(method string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, method)
}
