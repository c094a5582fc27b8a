// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package config

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dotandev/bunnyhop/internal/errors"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"debug level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"json format", func(c *Config) { c.LogFormat = "json" }, false},
		{"unknown format", func(c *Config) { c.LogFormat = "yaml" }, true},
		{"negative cache size", func(c *Config) { c.CacheMaxEntries = -1 }, true},
		{"empty cache path", func(c *Config) { c.CachePath = " " }, true},
		{"empty cache path when disabled", func(c *Config) { c.CachePath = ""; c.CacheEnabled = false }, false},
		{"tracing with bad url", func(c *Config) { c.Tracing = true; c.OTLPURL = "localhost:4318" }, true},
		{"tracing with http url", func(c *Config) { c.Tracing = true; c.OTLPURL = "http://collector:4318" }, false},
		{"port not a number", func(c *Config) { c.DaemonPort = "http" }, true},
		{"port out of range", func(c *Config) { c.DaemonPort = "70000" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunValidators_StopsAtFirstError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.DaemonPort = "0"

	err := RunValidators(cfg, DefaultValidators())
	assert.ErrorContains(t, err, "log_level")
}
