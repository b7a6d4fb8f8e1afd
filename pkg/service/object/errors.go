// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
)

// ErrorCode represents a domain-level error code
type ErrorCode int

const (
	ErrCodeNone ErrorCode = iota
	ErrCodeNotFound
	ErrCodeBucketNotFound
	ErrCodeBucketNotAvailable
	ErrCodeValidation
	ErrCodeUnavailable
	ErrCodeInternalError
)

// Error represents a domain-level error. The API layer maps codes to
// wire statuses; this package never sees HTTP.
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

// Error constructors

func newNotFoundError(resource string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func newValidationError(msg string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

func newInternalError(err error) *Error {
	return &Error{
		Code:    ErrCodeInternalError,
		Message: "internal error",
		Err:     err,
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodeNotFound || e.Code == ErrCodeBucketNotFound
	}
	return false
}
