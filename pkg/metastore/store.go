// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package metastore owns the per-bucket object catalog. Each open bucket
// has exactly one Store instance backed by a private SQLite database file
// that no other bucket touches.
package metastore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrObjectNotFound = fmt.Errorf("object not found")
)

// Store is the metadata catalog for a single bucket.
// Writes are serialized through writeMu; reads go straight to SQLite,
// which allows them to proceed concurrently with a writer.
type Store struct {
	db         *sql.DB
	path       string
	versioning bool

	writeMu sync.Mutex
}

// Open opens (or creates) the bucket metadata database at path.
// versioning selects whether puts supersede or accumulate versions.
func Open(path string, versioning bool) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("metastore path required")
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	// One connection keeps SQLite write serialization predictable.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:         db,
		path:       path,
		versioning: versioning,
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS objects (
			id TEXT PRIMARY KEY,
			object_key TEXT NOT NULL,
			version INTEGER NOT NULL,
			size INTEGER NOT NULL,
			checksum TEXT NOT NULL,
			storage_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			deleted_at INTEGER NOT NULL DEFAULT 0,
			delete_marker INTEGER NOT NULL DEFAULT 0,
			is_latest INTEGER NOT NULL,
			UNIQUE (object_key, version)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_key ON objects (object_key);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init metastore schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Versioning reports whether this bucket retains object versions.
func (s *Store) Versioning() bool {
	return s.versioning
}

// CountObjects returns the number of live records.
func (s *Store) CountObjects(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM objects WHERE delete_marker = 0 AND deleted_at = 0`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return count, nil
}

// StorageIDs returns every storage id referenced by any record, including
// superseded versions. Used when reclaiming a destroyed bucket.
func (s *Store) StorageIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT storage_id FROM objects WHERE storage_id <> ''`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan storage id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
