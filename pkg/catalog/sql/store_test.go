// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := catalog.DefaultConfig(catalog.DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	store, err := OpenConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func newUser(name, email string) *types.User {
	return &types.User{
		GUID:      uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UnixNano(),
	}
}

func newCredential(userGUID uuid.UUID, accessKey string) *types.Credential {
	return &types.Credential{
		GUID:      uuid.New(),
		UserGUID:  userGUID,
		AccessKey: accessKey,
		SecretKey: "c2VjcmV0LWtleS1ieXRlcw",
		IsBase64:  true,
		CreatedAt: time.Now().UnixNano(),
	}
}

func newBucketConfig(owner uuid.UUID, name string) *types.BucketConfig {
	guid := uuid.New()
	return &types.BucketConfig{
		GUID:         guid,
		OwnerGUID:    owner,
		Name:         name,
		DatabaseFile: "/data/buckets/" + guid.String() + ".db",
		ObjectsDir:   "/data/buckets/" + guid.String(),
		Versioning:   true,
		PublicRead:   true,
		CreatedAt:    time.Now().UnixNano(),
	}
}

// ============================================================================
// Users
// ============================================================================

func TestStore_UserRoundtrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))

	got, err := store.GetUserByGUID(ctx, user.GUID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	got, err = store.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.GUID, got.GUID)

	got, err = store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.GUID, got.GUID)
}

func TestStore_UserNotFound(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.GetUserByGUID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)
}

func TestStore_UserDuplicateEmail(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUser(ctx, newUser("alice", "alice@example.com")))

	err := store.AddUser(ctx, newUser("bob", "alice@example.com"))
	assert.ErrorIs(t, err, catalog.ErrDuplicateKey)
}

func TestStore_ListUsers_CreationOrder(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	first := newUser("alice", "alice@example.com")
	second := newUser("bob", "bob@example.com")
	second.CreatedAt = first.CreatedAt + 1
	require.NoError(t, store.AddUser(ctx, first))
	require.NoError(t, store.AddUser(ctx, second))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, "bob", users[1].Name)
}

func TestStore_DeleteUser_Idempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))
	require.NoError(t, store.DeleteUser(ctx, user.GUID))
	require.NoError(t, store.DeleteUser(ctx, user.GUID))

	_, err := store.GetUserByGUID(ctx, user.GUID)
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)
}

// ============================================================================
// Credentials
// ============================================================================

func TestStore_CredentialRoundtrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))

	cred := newCredential(user.GUID, "AKIA0123456789ABCDEF")
	require.NoError(t, store.AddCredential(ctx, cred))

	got, err := store.GetCredentialByGUID(ctx, cred.GUID)
	require.NoError(t, err)
	assert.Equal(t, cred, got)

	got, err = store.GetCredentialByAccessKey(ctx, cred.AccessKey)
	require.NoError(t, err)
	assert.Equal(t, cred.GUID, got.GUID)
	assert.True(t, got.IsBase64)
}

func TestStore_Credential_UnknownUser(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	err := store.AddCredential(context.Background(), newCredential(uuid.New(), "AKIA0123456789ABCDEF"))
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)
}

func TestStore_Credential_DuplicateAccessKey(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))
	require.NoError(t, store.AddCredential(ctx, newCredential(user.GUID, "AKIA0123456789ABCDEF")))

	err := store.AddCredential(ctx, newCredential(user.GUID, "AKIA0123456789ABCDEF"))
	assert.ErrorIs(t, err, catalog.ErrDuplicateKey)
}

func TestStore_ListCredentialsForUser(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	alice := newUser("alice", "alice@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, store.AddUser(ctx, alice))
	require.NoError(t, store.AddUser(ctx, bob))
	require.NoError(t, store.AddCredential(ctx, newCredential(alice.GUID, "AKIAALICE00000000001")))
	require.NoError(t, store.AddCredential(ctx, newCredential(alice.GUID, "AKIAALICE00000000002")))
	require.NoError(t, store.AddCredential(ctx, newCredential(bob.GUID, "AKIABOB0000000000001")))

	creds, err := store.ListCredentialsForUser(ctx, alice.GUID)
	require.NoError(t, err)
	assert.Len(t, creds, 2)

	all, err := store.ListCredentials(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_DeleteCredentialsForUser(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))
	require.NoError(t, store.AddCredential(ctx, newCredential(user.GUID, "AKIAALICE00000000001")))
	require.NoError(t, store.AddCredential(ctx, newCredential(user.GUID, "AKIAALICE00000000002")))

	require.NoError(t, store.DeleteCredentialsForUser(ctx, user.GUID))

	creds, err := store.ListCredentialsForUser(ctx, user.GUID)
	require.NoError(t, err)
	assert.Empty(t, creds)
}

// ============================================================================
// Buckets
// ============================================================================

func TestStore_BucketRoundtrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))

	bucket := newBucketConfig(user.GUID, "photos")
	require.NoError(t, store.AddBucket(ctx, bucket))

	got, err := store.GetBucketByName(ctx, "photos")
	require.NoError(t, err)
	assert.Equal(t, bucket, got)
	assert.True(t, got.Versioning)
	assert.True(t, got.PublicRead)
	assert.False(t, got.PublicWrite)

	got, err = store.GetBucketByGUID(ctx, bucket.GUID)
	require.NoError(t, err)
	assert.Equal(t, bucket.Name, got.Name)
}

func TestStore_Bucket_DuplicateName(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))
	require.NoError(t, store.AddBucket(ctx, newBucketConfig(user.GUID, "photos")))

	err := store.AddBucket(ctx, newBucketConfig(user.GUID, "photos"))
	assert.ErrorIs(t, err, catalog.ErrDuplicateKey)
}

func TestStore_ListBucketsForOwner(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	alice := newUser("alice", "alice@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, store.AddUser(ctx, alice))
	require.NoError(t, store.AddUser(ctx, bob))
	require.NoError(t, store.AddBucket(ctx, newBucketConfig(alice.GUID, "photos")))
	require.NoError(t, store.AddBucket(ctx, newBucketConfig(alice.GUID, "logs")))
	require.NoError(t, store.AddBucket(ctx, newBucketConfig(bob.GUID, "backups")))

	buckets, err := store.ListBucketsForOwner(ctx, alice.GUID)
	require.NoError(t, err)
	assert.Len(t, buckets, 2)

	all, err := store.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// ============================================================================
// Transactions
// ============================================================================

func TestStore_WithTx_CascadeDelete(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))
	require.NoError(t, store.AddCredential(ctx, newCredential(user.GUID, "AKIAALICE00000000001")))
	bucket := newBucketConfig(user.GUID, "photos")
	require.NoError(t, store.AddBucket(ctx, bucket))

	err := store.WithTx(ctx, func(tx catalog.TxStore) error {
		if err := tx.DeleteCredentialsForUser(ctx, user.GUID); err != nil {
			return err
		}
		if err := tx.DeleteBucket(ctx, bucket.GUID); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, user.GUID)
	})
	require.NoError(t, err)

	_, err = store.GetUserByGUID(ctx, user.GUID)
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)
	_, err = store.GetBucketByGUID(ctx, bucket.GUID)
	assert.ErrorIs(t, err, catalog.ErrBucketNotFound)
	creds, err := store.ListCredentialsForUser(ctx, user.GUID)
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	require.NoError(t, store.AddUser(ctx, user))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx catalog.TxStore) error {
		if err := tx.DeleteUser(ctx, user.GUID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The delete rolled back with the failed transaction.
	got, err := store.GetUserByGUID(ctx, user.GUID)
	require.NoError(t, err)
	assert.Equal(t, user.GUID, got.GUID)
}

func TestStore_Migrate_Idempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	// newTestStore already migrated once.
	require.NoError(t, store.Migrate(context.Background()))
}
