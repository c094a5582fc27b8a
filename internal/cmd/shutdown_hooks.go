// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/dotandev/bunnyhop/internal/cache"
	"github.com/dotandev/bunnyhop/internal/logger"
	"github.com/dotandev/bunnyhop/internal/shutdown"
)

const shutdownTimeout = 3 * time.Second

var shutdownState struct {
	mu          sync.RWMutex
	coordinator *shutdown.Coordinator
}

func setShutdownCoordinator(c *shutdown.Coordinator) {
	shutdownState.mu.Lock()
	defer shutdownState.mu.Unlock()
	shutdownState.coordinator = c
}

func clearShutdownCoordinator() {
	shutdownState.mu.Lock()
	defer shutdownState.mu.Unlock()
	shutdownState.coordinator = nil
}

// registerShutdownHook reports false when no coordinator is installed; the
// caller then owns cleanup.
func registerShutdownHook(name string, fn shutdown.HookFunc) bool {
	shutdownState.mu.RLock()
	c := shutdownState.coordinator
	shutdownState.mu.RUnlock()
	if c == nil {
		return false
	}
	c.Register(name, fn)
	return true
}

func runShutdownHooksWithTimeout(c *shutdown.Coordinator, timeout time.Duration) {
	if c == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		logger.Logger.Warn("Shutdown hooks completed with errors", "error", err)
	}
}

func registerTelemetryHook(cleanup func()) {
	if !registerShutdownHook("telemetry-flush", func(ctx context.Context) error {
		cleanup()
		return nil
	}) {
		logger.Logger.Debug("No shutdown coordinator; spans may be dropped on exit")
	}
}

// closeStoreOnShutdown returns a func the command should defer. It is a no-op
// when the coordinator took ownership of the store.
func closeStoreOnShutdown(store *cache.Store) func() {
	if store == nil {
		return func() {}
	}
	closeFn := func(ctx context.Context) error {
		return store.Close()
	}
	if registerShutdownHook("cache-close", closeFn) {
		return func() {}
	}
	return func() {
		if err := store.Close(); err != nil {
			logger.Logger.Warn("Failed to close cache", "error", err)
		}
	}
}
