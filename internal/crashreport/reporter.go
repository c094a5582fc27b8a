// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

// Package crashreport captures panics (for example an instruction contract
// violation inside the engine) and, when the user opts in, ships them to
// Sentry, an HTTP collector, or a local JSON file.
package crashreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	defaultTimeout = 5 * time.Second

	envOptIn     = "BUNNYHOP_CRASH_REPORTING"
	envEndpoint  = "BUNNYHOP_CRASH_ENDPOINT"
	envSentryDSN = "BUNNYHOP_SENTRY_DSN"
	envDir       = "BUNNYHOP_CRASH_DIR"
)

// Report carries process metadata only; input bytecode is never included.
type Report struct {
	Version      string `json:"version"`
	CommitSHA    string `json:"commit_sha,omitempty"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	GoVersion    string `json:"go_version"`
	CrashTime    string `json:"crash_time"`
	ErrorMessage string `json:"error_message"`
	StackTrace   string `json:"stack_trace,omitempty"`
	Command      string `json:"command,omitempty"`
}

type Config struct {
	// Enabled must be true (or BUNNYHOP_CRASH_REPORTING set) for anything to
	// be recorded.
	Enabled   bool
	SentryDSN string
	Endpoint  string
	// Dir receives crash-<unix>.json when no remote sink is configured.
	Dir       string
	Version   string
	CommitSHA string
}

type Reporter struct {
	cfg          Config
	client       *http.Client
	sentryActive bool
}

func New(cfg Config) *Reporter {
	if dsn := os.Getenv(envSentryDSN); dsn != "" {
		cfg.SentryDSN = dsn
	}
	if ep := os.Getenv(envEndpoint); ep != "" {
		cfg.Endpoint = ep
	}
	if dir := os.Getenv(envDir); dir != "" {
		cfg.Dir = dir
	}
	if cfg.Dir == "" {
		cfg.Dir = defaultDir()
	}

	r := &Reporter{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:     cfg.SentryDSN,
			Release: "bunnyhop@" + cfg.Version,
		}); err == nil {
			r.sentryActive = true
		}
	}
	return r
}

func (r *Reporter) IsEnabled() bool {
	switch strings.ToLower(os.Getenv(envOptIn)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return r.cfg.Enabled
}

// Send records one crash. It returns the local file path when the report was
// written to disk.
func (r *Reporter) Send(ctx context.Context, err error, stack []byte, command string) (string, error) {
	if !r.IsEnabled() {
		return "", nil
	}

	report := r.buildReport(err, stack, command)

	if r.sentryActive {
		r.sendToSentry(report)
	}
	if r.cfg.Endpoint != "" {
		return "", r.sendToEndpoint(ctx, report)
	}
	if !r.sentryActive {
		return r.writeFile(report)
	}
	return "", nil
}

func (r *Reporter) sendToSentry(report Report) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("os", report.OS)
		scope.SetTag("arch", report.Arch)
		scope.SetTag("go_version", report.GoVersion)
		scope.SetTag("command", report.Command)
		scope.SetExtra("stack_trace", report.StackTrace)
		scope.SetExtra("commit_sha", report.CommitSHA)

		sentry.CaptureMessage(report.ErrorMessage)
	})
	sentry.Flush(defaultTimeout)
}

func (r *Reporter) sendToEndpoint(ctx context.Context, report Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "bunnyhop/"+r.cfg.Version)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("crash report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("crash collector returned %d", resp.StatusCode)
	}
	return nil
}

func (r *Reporter) writeFile(report Report) (string, error) {
	if err := os.MkdirAll(r.cfg.Dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create crash dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	path := filepath.Join(r.cfg.Dir, fmt.Sprintf("crash-%d.json", time.Now().UnixNano()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Reporter) buildReport(err error, stack []byte, command string) Report {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	goVersion := runtime.Version()
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
	}

	return Report{
		Version:      r.cfg.Version,
		CommitSHA:    r.cfg.CommitSHA,
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		GoVersion:    goVersion,
		CrashTime:    time.Now().UTC().Format(time.RFC3339),
		ErrorMessage: msg,
		StackTrace:   string(stack),
		Command:      command,
	}
}

// HandlePanic is deferred at the top of main. It records an in-flight panic
// and re-panics so the process still dies with the runtime's stack dump.
func (r *Reporter) HandlePanic(ctx context.Context, command string) {
	v := recover()
	if v == nil {
		return
	}

	var panicErr error
	switch e := v.(type) {
	case error:
		panicErr = e
	default:
		panicErr = fmt.Errorf("%v", e)
	}

	if path, err := r.Send(ctx, panicErr, debug.Stack(), command); err == nil && path != "" {
		fmt.Fprintf(os.Stderr, "crash report written to %s\n", path)
	}
	panic(v)
}

func defaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".bunnyhop", "crash")
	}
	return filepath.Join(os.TempDir(), "bunnyhop-crash")
}
