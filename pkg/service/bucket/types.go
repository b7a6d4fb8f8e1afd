// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"fmt"

	"github.com/google/uuid"
)

// CreateBucketRequest contains parameters for creating a bucket
type CreateBucketRequest struct {
	Name        string
	OwnerGUID   uuid.UUID
	Versioning  bool
	PublicRead  bool
	PublicWrite bool
}

// CreateBucketResult contains the result of creating a bucket
type CreateBucketResult struct {
	GUID uuid.UUID
	Name string
}

// HeadBucketResult contains metadata for a bucket
type HeadBucketResult struct {
	GUID        uuid.UUID
	Name        string
	OwnerGUID   uuid.UUID
	Versioning  bool
	PublicRead  bool
	PublicWrite bool
	CreatedAt   int64
	ObjectCount int64
}

// ListBucketsRequest contains parameters for listing buckets
type ListBucketsRequest struct {
	// OwnerGUID restricts the listing to one owner when set.
	OwnerGUID uuid.UUID
}

// BucketInfo represents a bucket in list results
type BucketInfo struct {
	GUID       uuid.UUID
	Name       string
	OwnerGUID  uuid.UUID
	Versioning bool
	CreatedAt  int64
}

// ListBucketsResult contains the result of listing buckets
type ListBucketsResult struct {
	Buckets []BucketInfo
}

// Error codes for bucket operations
type ErrorCode int

const (
	ErrCodeNone ErrorCode = iota
	ErrCodeNoSuchBucket
	ErrCodeBucketAlreadyExists
	ErrCodeBucketNotEmpty
	ErrCodeValidation
	ErrCodeInternalError
)

// Error represents a bucket service error with an error code
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
