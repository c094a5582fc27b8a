// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strconv"
	"strings"

	"github.com/dotandev/bunnyhop/internal/errors"
)

// Validator validates a specific aspect of the configuration.
type Validator interface {
	Validate(cfg *Config) error
}

// LogValidator checks the log level and format.
type LogValidator struct{}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

func (v LogValidator) Validate(cfg *Config) error {
	if cfg.LogLevel != "" && !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return errors.WrapValidationError("log_level must be one of: debug, info, warn, error")
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		return errors.WrapValidationError("log_format must be text or json")
	}
	return nil
}

// CacheValidator checks the result cache settings.
type CacheValidator struct{}

func (v CacheValidator) Validate(cfg *Config) error {
	if cfg.CacheMaxEntries < 0 {
		return errors.WrapValidationError("cache_max_entries cannot be negative")
	}
	if cfg.CacheEnabled && strings.TrimSpace(cfg.CachePath) == "" {
		return errors.WrapValidationError("cache_path cannot be empty when the cache is enabled")
	}
	return nil
}

// TracingValidator checks the OTLP endpoint when tracing is on.
type TracingValidator struct{}

func (v TracingValidator) Validate(cfg *Config) error {
	if !cfg.Tracing {
		return nil
	}
	if !strings.HasPrefix(cfg.OTLPURL, "http://") && !strings.HasPrefix(cfg.OTLPURL, "https://") {
		return errors.WrapValidationError("otlp_url must use http or https scheme")
	}
	return nil
}

// DaemonValidator checks the JSON-RPC listen port.
type DaemonValidator struct{}

func (v DaemonValidator) Validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.DaemonPort)
	if err != nil || port < 1 || port > 65535 {
		return errors.WrapValidationError("daemon_port must be a number between 1 and 65535")
	}
	return nil
}

// DefaultValidators returns the standard set of validators.
func DefaultValidators() []Validator {
	return []Validator{
		LogValidator{},
		CacheValidator{},
		TracingValidator{},
		DaemonValidator{},
	}
}

// RunValidators executes each validator against the config, returning the
// first error encountered.
func RunValidators(cfg *Config, validators []Validator) error {
	for _, v := range validators {
		if err := v.Validate(cfg); err != nil {
			return err
		}
	}
	return nil
}
