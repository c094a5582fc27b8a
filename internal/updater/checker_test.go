// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package updater

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionComparison(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		latest      string
		needsUpdate bool
		expectError bool
	}{
		{name: "older version needs update", current: "v1.0.0", latest: "v1.1.0", needsUpdate: true},
		{name: "much older version needs update", current: "v1.2.3", latest: "v2.0.0", needsUpdate: true},
		{name: "prerelease to stable needs update", current: "v1.0.0-alpha", latest: "v1.0.0", needsUpdate: true},
		{name: "same version no update", current: "v1.0.0", latest: "v1.0.0"},
		{name: "newer version no update", current: "v2.0.0", latest: "v1.0.0"},
		{name: "dev version no update", current: "dev", latest: "v1.0.0"},
		{name: "empty version no update", current: "", latest: "v1.0.0"},
		{name: "versions without v prefix", current: "1.0.0", latest: "1.1.0", needsUpdate: true},
		{name: "garbage latest", current: "v1.0.0", latest: "not-a-version", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needsUpdate, err := compareVersions(tt.current, tt.latest)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.needsUpdate, needsUpdate)
		})
	}
}

func releaseServer(t *testing.T, tag string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "bunnyhop-cli", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Release{TagName: tag})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatest(t *testing.T) {
	srv := releaseServer(t, "v1.2.3", nil)
	c := NewChecker("v1.0.0", WithReleaseURL(srv.URL), WithCacheDir(t.TempDir()))

	latest, newer, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", latest)
	assert.True(t, newer)
}

func TestLatest_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewChecker("v1.0.0", WithReleaseURL(srv.URL))
	_, _, err := c.Latest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestCheckForUpdates_NotifiesOncePerInterval(t *testing.T) {
	t.Setenv("BUNNYHOP_NO_UPDATE_CHECK", "")
	var hits int32
	srv := releaseServer(t, "v9.0.0", &hits)
	dir := t.TempDir()
	var out bytes.Buffer

	c := NewChecker("v1.0.0", WithReleaseURL(srv.URL), WithCacheDir(dir), WithOutput(&out))
	c.CheckForUpdates(context.Background())

	assert.Contains(t, out.String(), "v9.0.0")
	assert.Contains(t, out.String(), "go install")
	assert.FileExists(t, filepath.Join(dir, stampFile))

	out.Reset()
	c.CheckForUpdates(context.Background())
	assert.Empty(t, out.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCheckForUpdates_OptOut(t *testing.T) {
	t.Setenv("BUNNYHOP_NO_UPDATE_CHECK", "1")
	var hits int32
	srv := releaseServer(t, "v9.0.0", &hits)
	var out bytes.Buffer

	c := NewChecker("v1.0.0", WithReleaseURL(srv.URL), WithCacheDir(t.TempDir()), WithOutput(&out))
	c.CheckForUpdates(context.Background())

	assert.True(t, Disabled())
	assert.Empty(t, out.String())
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestShouldCheck(t *testing.T) {
	t.Run("missing stamp", func(t *testing.T) {
		c := NewChecker("v1.0.0", WithCacheDir(t.TempDir()))
		assert.True(t, c.shouldCheck())
	})

	t.Run("fresh stamp", func(t *testing.T) {
		c := NewChecker("v1.0.0", WithCacheDir(t.TempDir()))
		require.NoError(t, c.writeStamp("v1.1.0"))
		assert.False(t, c.shouldCheck())
	})

	t.Run("expired stamp", func(t *testing.T) {
		dir := t.TempDir()
		data, err := json.Marshal(stamp{LastCheck: time.Now().Add(-25 * time.Hour)})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, stampFile), data, 0o644))

		c := NewChecker("v1.0.0", WithCacheDir(dir))
		assert.True(t, c.shouldCheck())
	})

	t.Run("corrupted stamp", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, stampFile), []byte("invalid json"), 0o644))

		c := NewChecker("v1.0.0", WithCacheDir(dir))
		assert.True(t, c.shouldCheck())
	})
}

func TestDefaultCacheDir(t *testing.T) {
	assert.Contains(t, defaultCacheDir(), "bunnyhop")
}
