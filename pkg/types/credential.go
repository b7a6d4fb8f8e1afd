// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "github.com/google/uuid"

// Credential is an access key / secret key pair owned by a user.
// Deleting the owning user removes all of its credentials.
type Credential struct {
	GUID      uuid.UUID `json:"guid"`
	UserGUID  uuid.UUID `json:"user_guid"`
	AccessKey string    `json:"access_key"`
	SecretKey string    `json:"secret_key,omitempty"`
	IsBase64  bool      `json:"is_base64,omitempty"` // SecretKey is base64-encoded binary
	CreatedAt int64     `json:"created_at"`
}
