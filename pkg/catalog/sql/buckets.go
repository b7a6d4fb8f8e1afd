// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// ============================================================================
// Bucket Operations - Store
// ============================================================================

func (s *Store) AddBucket(ctx context.Context, bucket *types.BucketConfig) error {
	return addBucket(ctx, s, bucket)
}

func (s *Store) GetBucketByGUID(ctx context.Context, guid uuid.UUID) (*types.BucketConfig, error) {
	return getBucketBy(ctx, s, "guid", guid.String())
}

func (s *Store) GetBucketByName(ctx context.Context, name string) (*types.BucketConfig, error) {
	return getBucketBy(ctx, s, "name", name)
}

func (s *Store) ListBuckets(ctx context.Context) ([]*types.BucketConfig, error) {
	return listBuckets(ctx, s, uuid.Nil)
}

func (s *Store) ListBucketsForOwner(ctx context.Context, ownerGUID uuid.UUID) ([]*types.BucketConfig, error) {
	return listBuckets(ctx, s, ownerGUID)
}

func (s *Store) DeleteBucket(ctx context.Context, guid uuid.UUID) error {
	return deleteBucket(ctx, s, guid)
}

// ============================================================================
// Bucket Operations - TxStore
// ============================================================================

func (t *TxStore) AddBucket(ctx context.Context, bucket *types.BucketConfig) error {
	return addBucket(ctx, t, bucket)
}

func (t *TxStore) GetBucketByGUID(ctx context.Context, guid uuid.UUID) (*types.BucketConfig, error) {
	return getBucketBy(ctx, t, "guid", guid.String())
}

func (t *TxStore) GetBucketByName(ctx context.Context, name string) (*types.BucketConfig, error) {
	return getBucketBy(ctx, t, "name", name)
}

func (t *TxStore) ListBuckets(ctx context.Context) ([]*types.BucketConfig, error) {
	return listBuckets(ctx, t, uuid.Nil)
}

func (t *TxStore) ListBucketsForOwner(ctx context.Context, ownerGUID uuid.UUID) ([]*types.BucketConfig, error) {
	return listBuckets(ctx, t, ownerGUID)
}

func (t *TxStore) DeleteBucket(ctx context.Context, guid uuid.UUID) error {
	return deleteBucket(ctx, t, guid)
}

// ============================================================================
// Shared Implementations
// ============================================================================

func addBucket(ctx context.Context, q Querier, bucket *types.BucketConfig) error {
	if _, err := getUserBy(ctx, q, "guid", bucket.OwnerGUID.String()); err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			return catalog.ErrUserNotFound
		}
		return fmt.Errorf("add bucket: %w", err)
	}

	query := `
		INSERT INTO buckets (guid, owner_guid, name, database_file, objects_dir, versioning, public_write, public_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query,
		bucket.GUID.String(),
		bucket.OwnerGUID.String(),
		bucket.Name,
		bucket.DatabaseFile,
		bucket.ObjectsDir,
		q.Dialect().BoolValue(bucket.Versioning),
		q.Dialect().BoolValue(bucket.PublicWrite),
		q.Dialect().BoolValue(bucket.PublicRead),
		bucket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add bucket: %w", asDuplicateKey(err))
	}
	return nil
}

func getBucketBy(ctx context.Context, q Querier, field, value string) (*types.BucketConfig, error) {
	query := `SELECT ` + BucketColumns + ` FROM buckets WHERE ` + field + ` = $1`
	row := q.QueryRow(ctx, query, value)
	return ScanBucket(row, q.Dialect())
}

func listBuckets(ctx context.Context, q Querier, ownerGUID uuid.UUID) ([]*types.BucketConfig, error) {
	query := `SELECT ` + BucketColumns + ` FROM buckets`
	args := []any{}

	if ownerGUID != uuid.Nil {
		query += ` WHERE owner_guid = $1`
		args = append(args, ownerGUID.String())
	}
	query += ` ORDER BY name`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	return ScanBuckets(rows, q.Dialect())
}

func deleteBucket(ctx context.Context, q Querier, guid uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM buckets WHERE guid = $1`, guid.String())
	if err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	return nil
}
