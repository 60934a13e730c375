// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package store persists the posting history: which content (by
// fingerprint) went to which platform, when, and at what URL. The history
// feeds duplicate suppression and the cached analytics views.
//
// Failure policy follows the dispatcher's needs, not the database's:
// duplicate-check reads fail open (a storage outage must never block a
// legitimate post) and post-publish writes fail silent (losing a history
// row is a lesser harm than reporting a successful external publish as a
// failure). Both paths log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperdrift-io/hyperpost/internal/logging"
)

// Store wraps the SQLite connection and provides history access methods.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and ensures
// the schema exists. The caller owns the Store lifecycle and should call
// Close when done.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _time_format=sqlite keeps stored timestamps lexically comparable in
	// range queries against bound time.Time cutoffs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// churn under the concurrent record writes of a fan-out.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to close database")
	}
}

// schemaContext bounds schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// createTables creates the history tables. The uniqueness constraints are
// load-bearing: posts converge on content_hash, the import path converges
// post_platforms on (post_id, platform_id), and analytics converge on
// (post_platform_id, metric).
func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS platforms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_hash TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS post_platforms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL REFERENCES posts(id),
			platform_id INTEGER NOT NULL REFERENCES platforms(id),
			post_url TEXT NOT NULL,
			posted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_platforms_post
			ON post_platforms(post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_post_platforms_posted_at
			ON post_platforms(platform_id, posted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_post_platforms_pair
			ON post_platforms(post_id, platform_id)`,
		`CREATE TABLE IF NOT EXISTS post_analytics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_platform_id INTEGER NOT NULL REFERENCES post_platforms(id),
			metric TEXT NOT NULL,
			value INTEGER NOT NULL DEFAULT 0,
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(post_platform_id, metric)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
