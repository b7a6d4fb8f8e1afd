// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
	"io"
)

// StorageType identifies the backend storage implementation
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // Local filesystem
	StorageTypeS3    StorageType = "s3"    // S3-compatible remote store
)

// BackendConfig contains configuration for creating a backend storage instance
type BackendConfig struct {
	Type      StorageType `json:"type"`
	Path      string      `json:"path,omitempty"`       // For local filesystem
	Endpoint  string      `json:"endpoint,omitempty"`   // For remote backends
	Bucket    string      `json:"bucket,omitempty"`     // For object store backends
	Region    string      `json:"region,omitempty"`     // For cloud backends
	AccessKey string      `json:"access_key,omitempty"`
	SecretKey string      `json:"secret_key,omitempty"`
}

// BackendStorage is the interface for reading/writing object bytes.
// Implementations must make a full write visible atomically (a reader
// never observes a partially written object) and must treat Delete of a
// missing id as a no-op.
type BackendStorage interface {
	// Type returns the storage type
	Type() StorageType

	// Write stores the full stream under id. The write is atomic with
	// respect to concurrent readers of the same id.
	Write(ctx context.Context, id string, data io.Reader, size int64) error

	// Read opens the bytes stored under id for sequential read.
	Read(ctx context.Context, id string) (io.ReadCloser, error)

	// ReadRange reads length bytes starting at offset.
	ReadRange(ctx context.Context, id string, offset, length int64) (io.ReadCloser, error)

	// Delete removes the bytes stored under id. Idempotent.
	Delete(ctx context.Context, id string) error

	// Exists reports whether id is present.
	Exists(ctx context.Context, id string) (bool, error)

	// Size returns the stored size of id.
	Size(ctx context.Context, id string) (int64, error)

	// Close releases backend resources
	Close() error
}
