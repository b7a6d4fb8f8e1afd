// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"context"
)

// Service defines the interface for object operations.
// This separates business logic from HTTP handling.
type Service interface {
	// PutObject stores an object's bytes and metadata record. In a
	// non-versioned bucket the previous record for the key is
	// superseded and its bytes reclaimed.
	PutObject(ctx context.Context, req *PutObjectRequest) (*PutObjectResult, error)

	// GetObject retrieves an object for reading. The caller must close
	// the returned stream.
	GetObject(ctx context.Context, req *GetObjectRequest) (*GetObjectResult, error)

	// HeadObject retrieves object metadata without the body.
	HeadObject(ctx context.Context, bucket, key string, version int64) (*HeadObjectResult, error)

	// DeleteObject removes the latest record. In a versioned bucket
	// this writes a delete marker; otherwise the row is removed and
	// the bytes reclaimed.
	DeleteObject(ctx context.Context, bucket, key string) (*DeleteObjectResult, error)

	// DeleteObjectVersion permanently removes one version and reclaims
	// its bytes.
	DeleteObjectVersion(ctx context.Context, bucket, key string, version int64) (*DeleteObjectResult, error)

	// ListObjects lists records in key order with cursor pagination.
	ListObjects(ctx context.Context, req *ListObjectsRequest) (*ListObjectsResult, error)
}
