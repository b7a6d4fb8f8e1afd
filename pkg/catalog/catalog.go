// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog defines the global metadata catalog: users, credentials,
// and bucket registration rows. Object metadata lives in each bucket's
// private store, not here.
package catalog

import (
	"context"
	"fmt"

	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrCredentialNotFound = fmt.Errorf("credential not found")
	ErrBucketNotFound     = fmt.Errorf("bucket not found")

	// ErrDuplicateKey reports a uniqueness violation (GUID, email,
	// bucket name, or access key). The catalog is left unchanged.
	ErrDuplicateKey = fmt.Errorf("duplicate key")

	// ErrUnavailable reports that the catalog database could not be
	// reached. Distinct from not-found: existence is unknown.
	ErrUnavailable = fmt.Errorf("catalog unavailable")
)

// Driver identifies a catalog database driver
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Connection pool defaults
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 300 // seconds
	DefaultConnMaxIdleTime = 60  // seconds
)

// Config holds catalog database configuration
type Config struct {
	// Driver specifies the database backend (sqlite, postgres, mysql)
	Driver Driver

	// DSN is the data source name. For sqlite this is a file path.
	DSN string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
}

// DefaultConfig returns a Config with sensible defaults for the given driver
func DefaultConfig(driver Driver, dsn string) Config {
	return Config{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		ConnMaxIdleTime: DefaultConnMaxIdleTime,
	}
}

// Catalog is the main interface over the global metadata catalog.
type Catalog interface {
	UserStore
	CredentialStore
	BucketStore

	// WithTx executes fn within a transaction. If fn returns an error,
	// the transaction is rolled back; otherwise it is committed.
	// Cascading operations (user delete) run through this.
	WithTx(ctx context.Context, fn func(tx TxStore) error) error

	// Migrate creates the catalog schema if missing.
	Migrate(ctx context.Context) error

	// Close closes the database connection
	Close() error
}

// TxStore provides transactional access to all catalog stores.
type TxStore interface {
	UserStore
	CredentialStore
	BucketStore
}

// UserStore provides CRUD operations for users
type UserStore interface {
	// AddUser persists a user. Fails with ErrDuplicateKey if the GUID
	// or email is already taken.
	AddUser(ctx context.Context, user *types.User) error

	// GetUserByGUID returns the user or ErrUserNotFound.
	GetUserByGUID(ctx context.Context, guid uuid.UUID) (*types.User, error)

	// GetUserByName returns the first user with the given name.
	GetUserByName(ctx context.Context, name string) (*types.User, error)

	// GetUserByEmail returns the user or ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// ListUsers returns all users. Ordering is not guaranteed.
	ListUsers(ctx context.Context) ([]*types.User, error)

	// DeleteUser removes the user row only. Cascading to credentials
	// and buckets is the caller's responsibility, inside WithTx.
	DeleteUser(ctx context.Context, guid uuid.UUID) error
}

// CredentialStore provides CRUD operations for credentials
type CredentialStore interface {
	// AddCredential persists a credential. Fails with ErrDuplicateKey
	// if the GUID or access key exists, ErrUserNotFound if the owning
	// user does not.
	AddCredential(ctx context.Context, cred *types.Credential) error

	// GetCredentialByGUID returns the credential or ErrCredentialNotFound.
	GetCredentialByGUID(ctx context.Context, guid uuid.UUID) (*types.Credential, error)

	// GetCredentialByAccessKey returns the credential or ErrCredentialNotFound.
	GetCredentialByAccessKey(ctx context.Context, accessKey string) (*types.Credential, error)

	// ListCredentials returns all credentials.
	ListCredentials(ctx context.Context) ([]*types.Credential, error)

	// ListCredentialsForUser returns the user's credentials.
	ListCredentialsForUser(ctx context.Context, userGUID uuid.UUID) ([]*types.Credential, error)

	// DeleteCredential removes exactly one row. Idempotent: deleting a
	// nonexistent GUID is a no-op.
	DeleteCredential(ctx context.Context, guid uuid.UUID) error

	// DeleteCredentialsForUser removes all credentials owned by a user.
	DeleteCredentialsForUser(ctx context.Context, userGUID uuid.UUID) error
}

// BucketStore provides CRUD operations for bucket catalog rows.
// Physical provisioning and destruction belong to the bucket manager.
type BucketStore interface {
	// AddBucket persists a bucket row. Fails with ErrDuplicateKey if
	// the GUID or name exists, ErrUserNotFound if the owner does not.
	AddBucket(ctx context.Context, bucket *types.BucketConfig) error

	// GetBucketByGUID returns the bucket or ErrBucketNotFound.
	GetBucketByGUID(ctx context.Context, guid uuid.UUID) (*types.BucketConfig, error)

	// GetBucketByName returns the bucket or ErrBucketNotFound.
	GetBucketByName(ctx context.Context, name string) (*types.BucketConfig, error)

	// ListBuckets returns all bucket rows.
	ListBuckets(ctx context.Context) ([]*types.BucketConfig, error)

	// ListBucketsForOwner returns buckets owned by a user.
	ListBucketsForOwner(ctx context.Context, ownerGUID uuid.UUID) ([]*types.BucketConfig, error)

	// DeleteBucket removes the catalog row. Idempotent.
	DeleteBucket(ctx context.Context, guid uuid.UUID) error
}
