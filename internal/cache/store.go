// Copyright 2025 Erst Users
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	_ "modernc.org/sqlite"

	"github.com/dotandev/bunnyhop/internal/bunnyhop"
	"github.com/dotandev/bunnyhop/internal/errors"
	"github.com/dotandev/bunnyhop/internal/logger"
)

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1

	DirPerm  = 0700
	FilePerm = 0600
)

// Entry is one cached optimization result.
type Entry struct {
	Key          string
	Output       string
	InputSize    int
	OutputSize   int
	Report       bunnyhop.Report
	CreatedAt    time.Time
	LastAccessAt time.Time
	Hits         int
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries    int
	Hits       int
	BytesSaved int64
	FileSize   int64
}

// Store keeps optimization results in SQLite, keyed by the keccak256 hash of
// the runtime code that was optimized.
type Store struct {
	db   *sql.DB
	path string
}

// Key derives the cache key for a runtime code blob.
func Key(code []byte) string {
	return crypto.Keccak256Hash(code).Hex()
}

// Open creates or opens the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return nil, errors.WrapCacheError("create cache directory", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.WrapCacheError("open database", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(path, FilePerm); err != nil {
		logger.Logger.Warn("Failed to set cache database permissions", "error", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		output TEXT NOT NULL,
		input_size INTEGER NOT NULL,
		output_size INTEGER NOT NULL,
		report TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		last_access_at INTEGER NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_results_last_access ON results(last_access_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return errors.WrapCacheError("init schema", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return errors.WrapCacheError("set schema version", err)
	}
	return nil
}

// Path is the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get looks up key and records the hit.
func (s *Store) Get(ctx context.Context, key string) (*Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT key, output, input_size, output_size, report, created_at, last_access_at, hits
	FROM results WHERE key = ?`, key)

	var (
		e                   Entry
		reportRaw           string
		created, lastAccess int64
	)
	err := row.Scan(&e.Key, &e.Output, &e.InputSize, &e.OutputSize, &reportRaw, &created, &lastAccess, &e.Hits)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WrapCacheError("get", err)
	}
	if err := json.Unmarshal([]byte(reportRaw), &e.Report); err != nil {
		logger.Logger.Warn("Cached report corrupted, ignoring entry", "key", key, "error", err)
		return nil, false, nil
	}
	e.CreatedAt = time.Unix(created, 0)

	now := time.Now()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE results SET hits = hits + 1, last_access_at = ? WHERE key = ?`, now.Unix(), key); err != nil {
		return nil, false, errors.WrapCacheError("touch", err)
	}
	e.Hits++
	e.LastAccessAt = time.Unix(now.Unix(), 0)

	return &e, true, nil
}

// Put stores or replaces an entry.
func (s *Store) Put(ctx context.Context, e *Entry) error {
	reportJSON, err := json.Marshal(e.Report)
	if err != nil {
		return errors.WrapCacheError("marshal report", err)
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO results (key, output, input_size, output_size, report, created_at, last_access_at, hits)
	VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	ON CONFLICT(key) DO UPDATE SET
		output = excluded.output,
		input_size = excluded.input_size,
		output_size = excluded.output_size,
		report = excluded.report,
		last_access_at = excluded.last_access_at`,
		e.Key, e.Output, e.InputSize, e.OutputSize, string(reportJSON), now, now)
	if err != nil {
		return errors.WrapCacheError("insert", err)
	}
	return nil
}

// Stats reports entry count, total hits and bytes saved across entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COALESCE(SUM(hits), 0), COALESCE(SUM(input_size - output_size), 0)
	FROM results`)
	if err := row.Scan(&st.Entries, &st.Hits, &st.BytesSaved); err != nil {
		return Stats{}, errors.WrapCacheError("stats", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		st.FileSize = info.Size()
	}
	return st, nil
}

// Prune keeps the maxEntries most recently used entries and deletes the rest.
func (s *Store) Prune(ctx context.Context, maxEntries int) (int64, error) {
	if maxEntries <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
	DELETE FROM results WHERE key NOT IN (
		SELECT key FROM results ORDER BY last_access_at DESC, created_at DESC LIMIT ?
	)`, maxEntries)
	if err != nil {
		return 0, errors.WrapCacheError("prune", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Logger.Debug("Pruned cache entries", "removed", n, "max_entries", maxEntries)
	}
	return n, nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, errors.WrapCacheError("clear", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
