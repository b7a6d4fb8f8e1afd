// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"io"

	"github.com/coldbrook-labs/shale/pkg/types"
)

// PutObjectRequest contains parameters for storing an object
type PutObjectRequest struct {
	Bucket        string
	Key           string
	Body          io.Reader
	ContentLength int64 // -1 if unknown (chunked encoding)
}

// PutObjectResult contains the result of storing an object
type PutObjectResult struct {
	Record *types.ObjectRecord
}

// ByteRange selects part of an object. Length 0 means to the end.
type ByteRange struct {
	Offset int64
	Length int64
}

// GetObjectRequest contains parameters for retrieving an object
type GetObjectRequest struct {
	Bucket  string
	Key     string
	Version int64      // 0 for latest
	Range   *ByteRange // nil for full object
}

// GetObjectResult contains the retrieved record and an open stream.
// The caller owns Stream.Body and must close it.
type GetObjectResult struct {
	Record *types.ObjectRecord
	Stream *types.ObjectStream
}

// HeadObjectResult contains object metadata without the body
type HeadObjectResult struct {
	Record *types.ObjectRecord
}

// DeleteObjectResult contains the result of deleting an object
type DeleteObjectResult struct {
	DeleteMarker bool
	Version      int64
}

// ListObjectsRequest contains parameters for listing objects
type ListObjectsRequest struct {
	Bucket          string
	Prefix          string
	StartAfter      string
	MaxKeys         int
	IncludeVersions bool
	AfterVersion    int64 // with IncludeVersions, resumes mid-key
}

// ListObjectsResult contains one page of records
type ListObjectsResult struct {
	Records     []*types.ObjectRecord
	IsTruncated bool
	NextKey     string
	NextVersion int64
}
