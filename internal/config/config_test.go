// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/bunnyhop/internal/errors"
)

// isolate points HOME and the working directory at an empty temp dir and
// clears every BUNNYHOP_* variable.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	for _, key := range []string{
		"BUNNYHOP_CONFIG", "BUNNYHOP_LOG_LEVEL", "BUNNYHOP_LOG_FORMAT",
		"BUNNYHOP_CACHE_PATH", "BUNNYHOP_CACHE", "BUNNYHOP_CACHE_MAX_ENTRIES",
		"BUNNYHOP_SPLIT_RUNTIME", "BUNNYHOP_TRACING", "BUNNYHOP_OTLP_URL",
		"BUNNYHOP_DAEMON_PORT", "BUNNYHOP_AUTH_TOKEN", "BUNNYHOP_NO_UPDATE_CHECK",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.SplitRuntime)
	assert.True(t, cfg.CacheEnabled)
	assert.NotEmpty(t, cfg.CachePath)
	assert.False(t, cfg.Tracing)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_ReturnsCopy(t *testing.T) {
	a := DefaultConfig()
	a.WithLogLevel("debug").WithSplitRuntime(false)

	b := DefaultConfig()
	assert.Equal(t, "info", b.LogLevel)
	assert.True(t, b.SplitRuntime)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Source())
}

func TestLoad_FromWorkingDirectoryFile(t *testing.T) {
	dir := isolate(t)
	content := `
log_level = "debug"
split_runtime = false
cache = false
daemon_port = "9000"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bunnyhop.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.SplitRuntime)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, "9000", cfg.DaemonPort)
	assert.Equal(t, ".bunnyhop.toml", cfg.Source())
	// untouched keys keep their defaults
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "warn"`+"\n"+`tracing = false`), 0600))
	t.Setenv("BUNNYHOP_CONFIG", path)
	t.Setenv("BUNNYHOP_LOG_LEVEL", "error")
	t.Setenv("BUNNYHOP_TRACING", "true")
	t.Setenv("BUNNYHOP_NO_UPDATE_CHECK", "1")
	t.Setenv("BUNNYHOP_CACHE_MAX_ENTRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.True(t, cfg.Tracing)
	assert.False(t, cfg.UpdateCheck)
	assert.Equal(t, 5, cfg.CacheMaxEntries)
	assert.Equal(t, path, cfg.Source())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("BUNNYHOP_CONFIG", filepath.Join(dir, "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bunnyhop.toml"), []byte("log_level = \n"), 0600))

	_, err := Load()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrConfig))
}

func TestLoad_InvalidValue(t *testing.T) {
	isolate(t)
	t.Setenv("BUNNYHOP_LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("BUNNYHOP_TEST_BOOL", "yes")
	assert.True(t, getEnvBool("BUNNYHOP_TEST_BOOL", false))

	t.Setenv("BUNNYHOP_TEST_BOOL", "off")
	assert.False(t, getEnvBool("BUNNYHOP_TEST_BOOL", true))

	t.Setenv("BUNNYHOP_TEST_BOOL", "maybe")
	assert.True(t, getEnvBool("BUNNYHOP_TEST_BOOL", true))
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, "LogLevel: info")
	assert.Contains(t, s, "SplitRuntime: true")
}
