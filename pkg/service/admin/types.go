// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"fmt"
)

// CascadePolicy decides what happens to a deleted user's buckets.
type CascadePolicy string

const (
	// CascadeDelete removes the bucket catalog rows and closes their
	// handles; files stay on disk for operator recovery. Default.
	CascadeDelete CascadePolicy = "delete"

	// CascadeDestroy removes the rows and deletes the metadata files
	// and object directories irreversibly.
	CascadeDestroy CascadePolicy = "destroy"
)

// CreateUserRequest contains parameters for creating a user
type CreateUserRequest struct {
	Name  string
	Email string
}

// Error codes for admin operations
type ErrorCode int

const (
	ErrCodeNone ErrorCode = iota
	ErrCodeNotFound
	ErrCodeAlreadyExists
	ErrCodeValidation
	ErrCodeUnavailable
	ErrCodeInternalError
)

// Error represents an admin service error
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

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodeNotFound
	}
	return false
}
