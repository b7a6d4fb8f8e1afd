// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "github.com/google/uuid"

// ObjectRecord represents stored object metadata inside a bucket's
// private metadata store. In a non-versioned bucket at most one live
// record exists per key; in a versioned bucket each record is one
// (key, version) pair and versions are strictly increasing.
type ObjectRecord struct {
	ID      uuid.UUID `json:"id"`
	Key     string    `json:"key"`
	Version int64     `json:"version"`
	Size    int64     `json:"size"`

	// Checksum is the hex SHA-256 of the object content.
	Checksum string `json:"checksum,omitempty"`

	// StorageID locates the object bytes in the storage backend.
	// Opaque to everything except the backend that issued it.
	StorageID string `json:"storage_id,omitempty"`

	CreatedAt int64 `json:"created_at"`
	DeletedAt int64 `json:"deleted_at,omitempty"`

	// DeleteMarker marks a versioned delete: a record with no content.
	DeleteMarker bool `json:"delete_marker,omitempty"`

	// Latest is true for the most recent version of a key.
	Latest bool `json:"latest"`
}

// IsDeleted returns true if the record has been soft-deleted.
func (o *ObjectRecord) IsDeleted() bool {
	return o.DeletedAt > 0 || o.DeleteMarker
}
