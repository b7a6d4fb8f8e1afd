// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package admin implements the catalog administration surface: user
// and credential management, including the cascading user delete.
package admin

import (
	"context"

	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// Service defines the interface for admin catalog operations.
type Service interface {
	// CreateUser registers a user. Name and email are required; email
	// must be unique.
	CreateUser(ctx context.Context, req *CreateUserRequest) (*types.User, error)

	// GetUser returns a user by GUID.
	GetUser(ctx context.Context, guid uuid.UUID) (*types.User, error)

	// GetUserByEmail returns a user by email.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// ListUsers returns all users.
	ListUsers(ctx context.Context) ([]*types.User, error)

	// DeleteUser removes a user, all their credentials, and their
	// buckets per the configured cascade policy. The catalog rows drop
	// in one transaction; physical bucket teardown follows the commit.
	DeleteUser(ctx context.Context, guid uuid.UUID) error

	// CreateCredential mints a credential with generated keys for a
	// user.
	CreateCredential(ctx context.Context, userGUID uuid.UUID) (*types.Credential, error)

	// GetCredential returns a credential by GUID.
	GetCredential(ctx context.Context, guid uuid.UUID) (*types.Credential, error)

	// GetCredentialByAccessKey resolves an access key, as used by the
	// signature layer.
	GetCredentialByAccessKey(ctx context.Context, accessKey string) (*types.Credential, error)

	// ListCredentials returns a user's credentials, or all credentials
	// for uuid.Nil.
	ListCredentials(ctx context.Context, userGUID uuid.UUID) ([]*types.Credential, error)

	// DeleteCredential removes one credential. Idempotent.
	DeleteCredential(ctx context.Context, guid uuid.UUID) error
}
