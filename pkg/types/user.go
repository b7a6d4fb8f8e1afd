// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "github.com/google/uuid"

// User represents an account in the global catalog.
// A user owns zero or more credentials and zero or more buckets.
type User struct {
	GUID      uuid.UUID `json:"guid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt int64     `json:"created_at"` // Unix nanoseconds, UTC
}
