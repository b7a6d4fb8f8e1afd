// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"sync"

	"github.com/coldbrook-labs/shale/pkg/logger"
	"github.com/coldbrook-labs/shale/pkg/manager"
	"github.com/coldbrook-labs/shale/pkg/metastore"
	"github.com/coldbrook-labs/shale/pkg/storage/backend"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	sha256 "github.com/minio/sha256-simd"
)

// serviceImpl implements the Service interface
type serviceImpl struct {
	mgr *manager.Manager
}

// NewService creates a new object service
func NewService(mgr *manager.Manager) (Service, error) {
	if mgr == nil {
		return nil, newValidationError("manager is required")
	}
	return &serviceImpl{mgr: mgr}, nil
}

// acquireBucket resolves a bucket and registers an in-flight
// operation. Callers must pair a nil error with bkt.Release().
func (s *serviceImpl) acquireBucket(ctx context.Context, name string) (*manager.Bucket, error) {
	b, err := s.mgr.Get(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, manager.ErrBucketNotFound):
			return nil, &Error{Code: ErrCodeBucketNotFound, Message: "bucket not found"}
		case errors.Is(err, manager.ErrBucketNotAvailable):
			return nil, &Error{Code: ErrCodeBucketNotAvailable, Message: "bucket not available"}
		default:
			return nil, newInternalError(err)
		}
	}
	if err := b.Acquire(); err != nil {
		return nil, &Error{Code: ErrCodeBucketNotAvailable, Message: "bucket not available"}
	}
	return b, nil
}

// PutObject stores an object
func (s *serviceImpl) PutObject(ctx context.Context, req *PutObjectRequest) (*PutObjectResult, error) {
	if req.Key == "" {
		return nil, newValidationError("object key is required")
	}
	if req.Body == nil {
		return nil, newValidationError("body is required")
	}

	b, err := s.acquireBucket(ctx, req.Bucket)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	body := req.Body
	size := req.ContentLength
	if size < 0 {
		// Unknown length (chunked encoding): buffer to learn it.
		buf, rerr := io.ReadAll(body)
		if rerr != nil {
			return nil, newInternalError(rerr)
		}
		body = bytes.NewReader(buf)
		size = int64(len(buf))
	}

	// Hash while streaming into the backend, so large bodies are never
	// held in memory twice.
	hasher := sha256.New()
	storageID := uuid.New().String()

	if err := b.Storage().Write(ctx, storageID, io.TeeReader(body, hasher), size); err != nil {
		backend.Operations.WithLabelValues("write", "error").Inc()
		return nil, &Error{Code: ErrCodeUnavailable, Message: "write object bytes", Err: err}
	}
	backend.Operations.WithLabelValues("write", "ok").Inc()
	backend.BytesWritten.Add(float64(size))

	rec, superseded, err := b.Meta().PutObjectRecord(ctx, metastore.PutParams{
		Key:       req.Key,
		Size:      size,
		Checksum:  hex.EncodeToString(hasher.Sum(nil)),
		StorageID: storageID,
	})
	if err != nil {
		// Roll back the orphaned bytes; the old record still wins.
		if derr := b.Storage().Delete(ctx, storageID); derr != nil {
			logger.Warn().Err(derr).Str("storage_id", storageID).Msg("rollback orphaned write")
		}
		return nil, newInternalError(err)
	}

	if superseded != "" {
		// Non-versioned overwrite: reclaim the superseded bytes.
		if derr := b.Storage().Delete(ctx, superseded); derr != nil {
			logger.Warn().Err(derr).Str("storage_id", superseded).Msg("reclaim superseded bytes")
		}
	}

	logger.Debug().
		Str("bucket", req.Bucket).
		Str("key", req.Key).
		Str("size", humanize.IBytes(uint64(size))).
		Int64("version", rec.Version).
		Msg("object stored")

	return &PutObjectResult{Record: rec}, nil
}

// GetObject retrieves an object for reading
func (s *serviceImpl) GetObject(ctx context.Context, req *GetObjectRequest) (*GetObjectResult, error) {
	if req.Key == "" {
		return nil, newValidationError("object key is required")
	}

	b, err := s.acquireBucket(ctx, req.Bucket)
	if err != nil {
		return nil, err
	}

	rec, err := s.lookupRecord(ctx, b, req.Key, req.Version)
	if err != nil {
		b.Release()
		return nil, err
	}

	var (
		body          io.ReadCloser
		contentLength = rec.Size
	)
	if req.Range != nil {
		length := req.Range.Length
		if length <= 0 || req.Range.Offset+length > rec.Size {
			length = rec.Size - req.Range.Offset
		}
		if length < 0 {
			length = 0
		}
		contentLength = length
		body, err = b.Storage().ReadRange(ctx, rec.StorageID, req.Range.Offset, length)
	} else {
		body, err = b.Storage().Read(ctx, rec.StorageID)
	}
	if err != nil {
		b.Release()
		backend.Operations.WithLabelValues("read", "error").Inc()
		// A catalog record whose bytes are gone is a missing object,
		// not an unavailable backend.
		if errors.Is(err, backend.ErrNotFound) {
			return nil, &Error{Code: ErrCodeNotFound, Message: "object bytes not found", Err: err}
		}
		return nil, &Error{Code: ErrCodeUnavailable, Message: "read object bytes", Err: err}
	}
	backend.Operations.WithLabelValues("read", "ok").Inc()
	backend.BytesRead.Add(float64(contentLength))

	// The bucket stays acquired until the caller closes the stream, so
	// destruction cannot pull the bytes out from under the reader.
	return &GetObjectResult{
		Record: rec,
		Stream: &types.ObjectStream{
			Key:           rec.Key,
			ContentLength: contentLength,
			Body:          &releaseCloser{body: body, release: b.Release},
		},
	}, nil
}

// HeadObject retrieves object metadata without the body
func (s *serviceImpl) HeadObject(ctx context.Context, bucket, key string, version int64) (*HeadObjectResult, error) {
	if key == "" {
		return nil, newValidationError("object key is required")
	}

	b, err := s.acquireBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	rec, err := s.lookupRecord(ctx, b, key, version)
	if err != nil {
		return nil, err
	}
	return &HeadObjectResult{Record: rec}, nil
}

func (s *serviceImpl) lookupRecord(ctx context.Context, b *manager.Bucket, key string, version int64) (*types.ObjectRecord, error) {
	var (
		rec *types.ObjectRecord
		err error
	)
	if version > 0 {
		rec, err = b.Meta().GetObjectVersion(ctx, key, version)
	} else {
		rec, err = b.Meta().GetObjectRecord(ctx, key)
	}
	if err != nil {
		if errors.Is(err, metastore.ErrObjectNotFound) {
			return nil, newNotFoundError("object")
		}
		return nil, newInternalError(err)
	}
	if rec.DeleteMarker {
		return nil, newNotFoundError("object")
	}
	return rec, nil
}

// DeleteObject removes the latest record for a key
func (s *serviceImpl) DeleteObject(ctx context.Context, bucket, key string) (*DeleteObjectResult, error) {
	if key == "" {
		return nil, newValidationError("object key is required")
	}

	b, err := s.acquireBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	storageID, err := b.Meta().DeleteObjectRecord(ctx, key)
	if err != nil {
		if errors.Is(err, metastore.ErrObjectNotFound) {
			return nil, newNotFoundError("object")
		}
		return nil, newInternalError(err)
	}

	s.reclaim(ctx, b, storageID)
	return &DeleteObjectResult{DeleteMarker: b.Meta().Versioning()}, nil
}

// DeleteObjectVersion permanently removes one version
func (s *serviceImpl) DeleteObjectVersion(ctx context.Context, bucket, key string, version int64) (*DeleteObjectResult, error) {
	if key == "" {
		return nil, newValidationError("object key is required")
	}
	if version <= 0 {
		return nil, newValidationError("version must be positive")
	}

	b, err := s.acquireBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	storageID, err := b.Meta().DeleteObjectVersion(ctx, key, version)
	if err != nil {
		if errors.Is(err, metastore.ErrObjectNotFound) {
			return nil, newNotFoundError("object version")
		}
		return nil, newInternalError(err)
	}

	s.reclaim(ctx, b, storageID)
	return &DeleteObjectResult{Version: version}, nil
}

// reclaim releases object bytes whose record is gone. Best effort: an
// orphaned storage id wastes space but breaks nothing.
func (s *serviceImpl) reclaim(ctx context.Context, b *manager.Bucket, storageID string) {
	if storageID == "" {
		return
	}
	if err := b.Storage().Delete(ctx, storageID); err != nil {
		backend.Operations.WithLabelValues("delete", "error").Inc()
		logger.Warn().Err(err).Str("storage_id", storageID).Msg("reclaim object bytes")
		return
	}
	backend.Operations.WithLabelValues("delete", "ok").Inc()
}

// ListObjects lists records in key order
func (s *serviceImpl) ListObjects(ctx context.Context, req *ListObjectsRequest) (*ListObjectsResult, error) {
	b, err := s.acquireBucket(ctx, req.Bucket)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	res, err := b.Meta().ListObjects(ctx, metastore.ListParams{
		Prefix:          req.Prefix,
		StartAfter:      req.StartAfter,
		MaxKeys:         req.MaxKeys,
		IncludeVersions: req.IncludeVersions,
		AfterVersion:    req.AfterVersion,
	})
	if err != nil {
		return nil, newInternalError(err)
	}

	return &ListObjectsResult{
		Records:     res.Records,
		IsTruncated: res.IsTruncated,
		NextKey:     res.NextKey,
		NextVersion: res.NextVersion,
	}, nil
}

// releaseCloser releases the bucket's in-flight slot when the stream
// is closed. Close is idempotent.
type releaseCloser struct {
	body    io.ReadCloser
	release func()
	once    sync.Once
}

func (r *releaseCloser) Read(p []byte) (int, error) {
	return r.body.Read(p)
}

func (r *releaseCloser) Close() error {
	err := r.body.Close()
	r.once.Do(r.release)
	return err
}
