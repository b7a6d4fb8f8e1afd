// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "github.com/google/uuid"

// BucketConfig is the catalog row for a bucket.
// DatabaseFile and ObjectsDir are derived from the bucket GUID and are
// exclusively owned by this bucket.
type BucketConfig struct {
	GUID      uuid.UUID `json:"guid"`
	OwnerGUID uuid.UUID `json:"owner_guid"`
	Name      string    `json:"name"`

	DatabaseFile string `json:"database_file"` // per-bucket metadata database
	ObjectsDir   string `json:"objects_dir"`   // per-bucket object byte store

	Versioning  bool `json:"versioning,omitempty"`
	PublicWrite bool `json:"public_write,omitempty"`
	PublicRead  bool `json:"public_read,omitempty"`

	CreatedAt int64 `json:"created_at"`
}
