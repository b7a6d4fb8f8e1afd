// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"context"
)

// Service defines the interface for bucket operations.
// This separates business logic from HTTP handling.
type Service interface {
	// CreateBucket provisions a new bucket: metadata store, objects
	// directory, and catalog row.
	CreateBucket(ctx context.Context, req *CreateBucketRequest) (*CreateBucketResult, error)

	// DeleteBucket removes a bucket. Without destroy the files stay on
	// disk for operator recovery; with destroy they are deleted
	// irreversibly. Non-empty buckets are rejected unless force is set.
	DeleteBucket(ctx context.Context, name string, destroy, force bool) error

	// HeadBucket returns a bucket's metadata and live object count.
	HeadBucket(ctx context.Context, name string) (*HeadBucketResult, error)

	// ListBuckets lists bucket catalog rows, optionally for one owner.
	ListBuckets(ctx context.Context, req *ListBucketsRequest) (*ListBucketsResult, error)
}
