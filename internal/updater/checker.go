// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-version"

	"github.com/dotandev/bunnyhop/internal/logger"
)

const (
	// ReleaseURL is the endpoint for fetching the latest release
	ReleaseURL = "https://api.github.com/repos/dotandev/bunnyhop/releases/latest"
	// CheckInterval is how often the background check hits the network
	CheckInterval = 24 * time.Hour
	// RequestTimeout is the maximum time to wait for the release endpoint
	RequestTimeout = 5 * time.Second

	stampFile = "last_update_check"
)

// Checker looks up the latest published release.
type Checker struct {
	currentVersion string
	releaseURL     string
	cacheDir       string
	out            io.Writer
	client         *http.Client
}

// Release is the subset of the release API response we read.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// stamp records the last background check.
type stamp struct {
	LastCheck     time.Time `json:"last_check"`
	LatestVersion string    `json:"latest_version"`
}

// Option customizes a Checker.
type Option func(*Checker)

// WithReleaseURL points the checker at a different release endpoint.
func WithReleaseURL(url string) Option {
	return func(c *Checker) { c.releaseURL = url }
}

// WithCacheDir sets where the last-check stamp is kept.
func WithCacheDir(dir string) Option {
	return func(c *Checker) { c.cacheDir = dir }
}

// WithOutput sets where notifications are printed.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) { c.out = w }
}

// NewChecker creates a new update checker
func NewChecker(currentVersion string, opts ...Option) *Checker {
	c := &Checker{
		currentVersion: currentVersion,
		releaseURL:     ReleaseURL,
		cacheDir:       defaultCacheDir(),
		out:            os.Stderr,
		client:         &http.Client{Timeout: RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Disabled reports whether BUNNYHOP_NO_UPDATE_CHECK opts out of checks.
func Disabled() bool {
	return os.Getenv("BUNNYHOP_NO_UPDATE_CHECK") != ""
}

// Latest fetches the newest release and reports whether it is newer than the
// running version.
func (c *Checker) Latest(ctx context.Context) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	latest, err := c.fetchLatestVersion(ctx)
	if err != nil {
		return "", false, err
	}
	newer, err := compareVersions(c.currentVersion, latest)
	if err != nil {
		return latest, false, err
	}
	return latest, newer, nil
}

// CheckForUpdates runs at most once per CheckInterval and prints a notice
// when a newer release exists. All failures are silent.
func (c *Checker) CheckForUpdates(ctx context.Context) {
	if Disabled() || !c.shouldCheck() {
		return
	}

	latest, newer, err := c.Latest(ctx)
	if latest != "" {
		if err := c.writeStamp(latest); err != nil {
			logger.Logger.Debug("Failed to write update stamp", "error", err)
		}
	}
	if err != nil {
		logger.Logger.Debug("Update check failed", "error", err)
		return
	}
	if newer {
		c.notify(latest)
	}
}

func (c *Checker) shouldCheck() bool {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, stampFile))
	if err != nil {
		return true
	}
	var s stamp
	if err := json.Unmarshal(data, &s); err != nil {
		return true
	}
	return time.Since(s.LastCheck) >= CheckInterval
}

func (c *Checker) fetchLatestVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releaseURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "bunnyhop-cli")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release has no tag")
	}
	return release.TagName, nil
}

// compareVersions reports whether latest is newer than current. Development
// builds never need an update.
func compareVersions(current, latest string) (bool, error) {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")

	if current == "dev" || current == "" {
		return false, nil
	}

	currentVer, err := version.NewVersion(current)
	if err != nil {
		return false, err
	}
	latestVer, err := version.NewVersion(latest)
	if err != nil {
		return false, err
	}
	return latestVer.GreaterThan(currentVer), nil
}

func (c *Checker) notify(latest string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(c.out, "\n%s A new version (%s) is available. Run 'go install github.com/dotandev/bunnyhop/cmd/bunnyhop@latest' to update.\n\n",
		yellow("update:"), latest)
}

func (c *Checker) writeStamp(latest string) error {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(stamp{LastCheck: time.Now(), LatestVersion: latest})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.cacheDir, stampFile), data, 0o644)
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "bunnyhop")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "bunnyhop")
	}
	return filepath.Join(os.TempDir(), "bunnyhop")
}
