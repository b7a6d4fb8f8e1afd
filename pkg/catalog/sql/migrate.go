// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates the catalog schema if it does not exist.
// Statements are idempotent so startup can always run them.
func (s *Store) Migrate(ctx context.Context) error {
	boolType := s.dialect.BoolType()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			guid VARCHAR(36) PRIMARY KEY,
			name VARCHAR(256) NOT NULL,
			email VARCHAR(256) NOT NULL UNIQUE,
			created_at BIGINT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS credentials (
			guid VARCHAR(36) PRIMARY KEY,
			user_guid VARCHAR(36) NOT NULL,
			access_key VARCHAR(256) NOT NULL UNIQUE,
			secret_key VARCHAR(256) NOT NULL,
			is_base64 %s NOT NULL,
			created_at BIGINT NOT NULL
		)`, boolType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS buckets (
			guid VARCHAR(36) PRIMARY KEY,
			owner_guid VARCHAR(36) NOT NULL,
			name VARCHAR(256) NOT NULL UNIQUE,
			database_file VARCHAR(1024) NOT NULL,
			objects_dir VARCHAR(1024) NOT NULL,
			versioning %s NOT NULL,
			public_write %s NOT NULL,
			public_read %s NOT NULL,
			created_at BIGINT NOT NULL
		)`, boolType, boolType, boolType),
	}

	for _, stmt := range stmts {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS, so index creation
	// tolerates duplicate-name errors on re-run.
	indexes := []string{
		`CREATE INDEX idx_credentials_user_guid ON credentials (user_guid)`,
		`CREATE INDEX idx_buckets_owner_guid ON buckets (owner_guid)`,
	}
	for _, stmt := range indexes {
		if _, err := s.Exec(ctx, stmt); err != nil && !isIndexExists(err) {
			return fmt.Errorf("migrate catalog indexes: %w", err)
		}
	}
	return nil
}

func isIndexExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}
