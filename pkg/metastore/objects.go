// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// ObjectColumns is the standard column list for object record queries.
const ObjectColumns = `id, object_key, version, size, checksum, storage_id, created_at, deleted_at, delete_marker, is_latest`

// PutParams describes a new object record.
type PutParams struct {
	Key       string
	Size      int64
	Checksum  string
	StorageID string
}

// PutObjectRecord records a new object under params.Key.
//
// Versioning disabled: the new record replaces any existing record for
// the key and the superseded storage id is returned so the caller can
// reclaim the bytes. Versioning enabled: a new strictly-increasing
// version is inserted, prior versions stay queryable, and the returned
// superseded id is empty.
func (s *Store) PutObjectRecord(ctx context.Context, params PutParams) (*types.ObjectRecord, string, error) {
	if params.Key == "" {
		return nil, "", fmt.Errorf("object key required")
	}
	if params.Size < 0 {
		return nil, "", fmt.Errorf("negative content length")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	rec := &types.ObjectRecord{
		ID:        uuid.New(),
		Key:       params.Key,
		Size:      params.Size,
		Checksum:  params.Checksum,
		StorageID: params.StorageID,
		CreatedAt: time.Now().UTC().UnixNano(),
		Latest:    true,
	}

	var superseded string
	if s.versioning {
		next, err := nextVersion(ctx, tx, params.Key)
		if err != nil {
			return nil, "", err
		}
		rec.Version = next

		if _, err := tx.ExecContext(ctx,
			`UPDATE objects SET is_latest = 0 WHERE object_key = ? AND is_latest = 1`,
			params.Key,
		); err != nil {
			return nil, "", fmt.Errorf("mark old versions: %w", err)
		}
	} else {
		rec.Version = 1

		// Capture the superseded storage id before replacing the row.
		err := tx.QueryRowContext(ctx,
			`SELECT storage_id FROM objects WHERE object_key = ?`, params.Key,
		).Scan(&superseded)
		if err != nil && err != sql.ErrNoRows {
			return nil, "", fmt.Errorf("lookup superseded object: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM objects WHERE object_key = ?`, params.Key,
		); err != nil {
			return nil, "", fmt.Errorf("replace object: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO objects (`+ObjectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 1)
	`,
		rec.ID.String(),
		rec.Key,
		rec.Version,
		rec.Size,
		rec.Checksum,
		rec.StorageID,
		rec.CreatedAt,
	); err != nil {
		return nil, "", fmt.Errorf("put object record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("commit put: %w", err)
	}
	return rec, superseded, nil
}

// GetObjectRecord returns the latest non-deleted record for key.
func (s *Store) GetObjectRecord(ctx context.Context, key string) (*types.ObjectRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ObjectColumns+`
		FROM objects
		WHERE object_key = ? AND is_latest = 1 AND delete_marker = 0 AND deleted_at = 0
	`, key)
	return scanObject(row)
}

// GetObjectVersion returns a specific version of key, including delete
// markers and superseded versions.
func (s *Store) GetObjectVersion(ctx context.Context, key string, version int64) (*types.ObjectRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ObjectColumns+`
		FROM objects
		WHERE object_key = ? AND version = ?
	`, key, version)
	return scanObject(row)
}

// DeleteObjectRecord deletes key. Versioning disabled: the row is removed
// and its storage id returned for the caller to reclaim. Versioning
// enabled: a delete marker becomes the new latest version and history is
// preserved; the returned storage id is empty.
func (s *Store) DeleteObjectRecord(ctx context.Context, key string) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if !s.versioning {
		var storageID string
		err := tx.QueryRowContext(ctx,
			`SELECT storage_id FROM objects WHERE object_key = ?`, key,
		).Scan(&storageID)
		if err == sql.ErrNoRows {
			return "", ErrObjectNotFound
		}
		if err != nil {
			return "", fmt.Errorf("lookup object: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM objects WHERE object_key = ?`, key,
		); err != nil {
			return "", fmt.Errorf("delete object record: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit delete: %w", err)
		}
		return storageID, nil
	}

	// Versioned: a delete is a marker, not an erasure.
	var exists int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM objects
		WHERE object_key = ? AND is_latest = 1 AND delete_marker = 0 AND deleted_at = 0
	`, key).Scan(&exists)
	if err == sql.ErrNoRows {
		return "", ErrObjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup object: %w", err)
	}

	next, err := nextVersion(ctx, tx, key)
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE objects SET is_latest = 0 WHERE object_key = ? AND is_latest = 1`, key,
	); err != nil {
		return "", fmt.Errorf("mark old versions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO objects (`+ObjectColumns+`)
		VALUES (?, ?, ?, 0, '', '', ?, ?, 1, 1)
	`,
		uuid.New().String(),
		key,
		next,
		time.Now().UTC().UnixNano(),
		time.Now().UTC().UnixNano(),
	); err != nil {
		return "", fmt.Errorf("write delete marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit delete: %w", err)
	}
	return "", nil
}

// DeleteObjectVersion permanently removes one version of key and returns
// its storage id for the caller to reclaim (explicit purge).
func (s *Store) DeleteObjectVersion(ctx context.Context, key string, version int64) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback()

	var storageID string
	err = tx.QueryRowContext(ctx,
		`SELECT storage_id FROM objects WHERE object_key = ? AND version = ?`, key, version,
	).Scan(&storageID)
	if err == sql.ErrNoRows {
		return "", ErrObjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM objects WHERE object_key = ? AND version = ?`, key, version,
	); err != nil {
		return "", fmt.Errorf("purge version: %w", err)
	}

	// Promote the newest surviving version of the key, if any.
	if _, err := tx.ExecContext(ctx, `
		UPDATE objects SET is_latest = 1
		WHERE object_key = ?1 AND version = (SELECT MAX(version) FROM objects WHERE object_key = ?1)
	`, key); err != nil {
		return "", fmt.Errorf("promote version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit purge: %w", err)
	}
	return storageID, nil
}

func nextVersion(ctx context.Context, tx *sql.Tx, key string) (int64, error) {
	var max int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM objects WHERE object_key = ?`, key,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	return max + 1, nil
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanObject(row scanner) (*types.ObjectRecord, error) {
	var rec types.ObjectRecord
	var idStr string
	var deleteMarker, latest int

	err := row.Scan(
		&idStr,
		&rec.Key,
		&rec.Version,
		&rec.Size,
		&rec.Checksum,
		&rec.StorageID,
		&rec.CreatedAt,
		&rec.DeletedAt,
		&deleteMarker,
		&latest,
	)
	if err == sql.ErrNoRows {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan object record: %w", err)
	}

	rec.ID, _ = uuid.Parse(idStr)
	rec.DeleteMarker = deleteMarker != 0
	rec.Latest = latest != 0
	return &rec, nil
}
