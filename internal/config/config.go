// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dotandev/bunnyhop/internal/errors"
)

// Config represents the general configuration for bunnyhop
type Config struct {
	LogLevel  string `toml:"log_level" json:"log_level,omitempty"`
	LogFormat string `toml:"log_format" json:"log_format,omitempty"`
	// SplitRuntime strips everything up to the 3d393df3 deployer tail before
	// optimizing, so only runtime code is emitted.
	SplitRuntime bool `toml:"split_runtime" json:"split_runtime"`

	CacheEnabled    bool   `toml:"cache" json:"cache"`
	CachePath       string `toml:"cache_path" json:"cache_path,omitempty"`
	CacheMaxEntries int    `toml:"cache_max_entries" json:"cache_max_entries,omitempty"`

	Tracing bool   `toml:"tracing" json:"tracing"`
	OTLPURL string `toml:"otlp_url" json:"otlp_url,omitempty"`

	DaemonPort string `toml:"daemon_port" json:"daemon_port,omitempty"`
	AuthToken  string `toml:"auth_token" json:"-"`

	UpdateCheck bool `toml:"update_check" json:"update_check"`

	// source is the file the config was read from, if any.
	source string
}

var defaultConfig = &Config{
	LogLevel:        "info",
	LogFormat:       "text",
	SplitRuntime:    true,
	CacheEnabled:    true,
	CachePath:       filepath.Join(os.ExpandEnv("$HOME"), ".bunnyhop", "cache.db"),
	CacheMaxEntries: 10000,
	Tracing:         false,
	OTLPURL:         "http://localhost:4318",
	DaemonPort:      "8545",
	UpdateCheck:     true,
}

// Load builds the configuration from defaults, the first config file found,
// and BUNNYHOP_* environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists candidate config files. BUNNYHOP_CONFIG pins a single path.
func SearchPaths() []string {
	if explicit := os.Getenv("BUNNYHOP_CONFIG"); explicit != "" {
		return []string{explicit}
	}
	paths := []string{".bunnyhop.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".bunnyhop.toml"))
	}
	return append(paths, "/etc/bunnyhop/config.toml")
}

func (c *Config) loadFromFile() error {
	explicit := os.Getenv("BUNNYHOP_CONFIG") != ""
	for _, path := range SearchPaths() {
		err := c.loadTOML(path)
		if err == nil {
			c.source = path
			return nil
		}
		if stderrors.Is(err, fs.ErrNotExist) && !explicit {
			continue
		}
		return err
	}
	return nil
}

func (c *Config) loadTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return err
		}
		return errors.WrapConfigError("failed to read "+path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return errors.WrapConfigError("failed to parse "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("BUNNYHOP_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("BUNNYHOP_LOG_FORMAT", c.LogFormat)
	c.CachePath = getEnv("BUNNYHOP_CACHE_PATH", c.CachePath)
	c.OTLPURL = getEnv("BUNNYHOP_OTLP_URL", c.OTLPURL)
	c.DaemonPort = getEnv("BUNNYHOP_DAEMON_PORT", c.DaemonPort)
	c.AuthToken = getEnv("BUNNYHOP_AUTH_TOKEN", c.AuthToken)

	c.SplitRuntime = getEnvBool("BUNNYHOP_SPLIT_RUNTIME", c.SplitRuntime)
	c.CacheEnabled = getEnvBool("BUNNYHOP_CACHE", c.CacheEnabled)
	c.Tracing = getEnvBool("BUNNYHOP_TRACING", c.Tracing)
	if getEnvBool("BUNNYHOP_NO_UPDATE_CHECK", false) {
		c.UpdateCheck = false
	}

	if raw := os.Getenv("BUNNYHOP_CACHE_MAX_ENTRIES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			c.CacheMaxEntries = n
		}
	}
}

// Validate runs the default validators.
func (c *Config) Validate() error {
	return RunValidators(c, DefaultValidators())
}

// Source is the config file that was loaded, or "" when only defaults and
// environment were used.
func (c *Config) Source() string {
	return c.source
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{LogLevel: %s, SplitRuntime: %t, Cache: %t (%s), Tracing: %t, DaemonPort: %s}",
		c.LogLevel, c.SplitRuntime, c.CacheEnabled, c.CachePath, c.Tracing, c.DaemonPort,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func DefaultConfig() *Config {
	c := *defaultConfig
	return &c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

func (c *Config) WithCachePath(path string) *Config {
	c.CachePath = path
	return c
}

func (c *Config) WithSplitRuntime(split bool) *Config {
	c.SplitRuntime = split
	return c
}
