// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides an in-memory implementation of catalog.Catalog
// for testing. Data lives in maps guarded by a single mutex; WithTx
// snapshots the maps so a failed transaction rolls back completely.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// Catalog is an in-memory catalog implementation for testing.
type Catalog struct {
	mu sync.RWMutex

	users       map[uuid.UUID]*types.User
	credentials map[uuid.UUID]*types.Credential
	buckets     map[uuid.UUID]*types.BucketConfig
}

var _ catalog.Catalog = (*Catalog)(nil)

// New creates a new in-memory catalog for testing.
func New() *Catalog {
	return &Catalog{
		users:       make(map[uuid.UUID]*types.User),
		credentials: make(map[uuid.UUID]*types.Credential),
		buckets:     make(map[uuid.UUID]*types.BucketConfig),
	}
}

// ============================================================================
// User Operations
// ============================================================================

func (c *Catalog) AddUser(ctx context.Context, user *types.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addUserLocked(user)
}

func (c *Catalog) addUserLocked(user *types.User) error {
	if _, exists := c.users[user.GUID]; exists {
		return catalog.ErrDuplicateKey
	}
	for _, u := range c.users {
		if u.Email == user.Email {
			return catalog.ErrDuplicateKey
		}
	}
	cp := *user
	c.users[user.GUID] = &cp
	return nil
}

func (c *Catalog) GetUserByGUID(ctx context.Context, guid uuid.UUID) (*types.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.users[guid]
	if !ok {
		return nil, catalog.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (c *Catalog) GetUserByName(ctx context.Context, name string) (*types.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, u := range c.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, catalog.ErrUserNotFound
}

func (c *Catalog) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, u := range c.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, catalog.ErrUserNotFound
}

func (c *Catalog) ListUsers(ctx context.Context) ([]*types.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	users := make([]*types.User, 0, len(c.users))
	for _, u := range c.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt < users[j].CreatedAt })
	return users, nil
}

func (c *Catalog) DeleteUser(ctx context.Context, guid uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.users, guid)
	return nil
}

// ============================================================================
// Credential Operations
// ============================================================================

func (c *Catalog) AddCredential(ctx context.Context, cred *types.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[cred.UserGUID]; !ok {
		return catalog.ErrUserNotFound
	}
	if _, exists := c.credentials[cred.GUID]; exists {
		return catalog.ErrDuplicateKey
	}
	for _, cr := range c.credentials {
		if cr.AccessKey == cred.AccessKey {
			return catalog.ErrDuplicateKey
		}
	}
	cp := *cred
	c.credentials[cred.GUID] = &cp
	return nil
}

func (c *Catalog) GetCredentialByGUID(ctx context.Context, guid uuid.UUID) (*types.Credential, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cr, ok := c.credentials[guid]
	if !ok {
		return nil, catalog.ErrCredentialNotFound
	}
	cp := *cr
	return &cp, nil
}

func (c *Catalog) GetCredentialByAccessKey(ctx context.Context, accessKey string) (*types.Credential, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cr := range c.credentials {
		if cr.AccessKey == accessKey {
			cp := *cr
			return &cp, nil
		}
	}
	return nil, catalog.ErrCredentialNotFound
}

func (c *Catalog) ListCredentials(ctx context.Context) ([]*types.Credential, error) {
	return c.listCredentials(uuid.Nil), nil
}

func (c *Catalog) ListCredentialsForUser(ctx context.Context, userGUID uuid.UUID) ([]*types.Credential, error) {
	return c.listCredentials(userGUID), nil
}

func (c *Catalog) listCredentials(userGUID uuid.UUID) []*types.Credential {
	c.mu.RLock()
	defer c.mu.RUnlock()

	creds := make([]*types.Credential, 0, len(c.credentials))
	for _, cr := range c.credentials {
		if userGUID != uuid.Nil && cr.UserGUID != userGUID {
			continue
		}
		cp := *cr
		creds = append(creds, &cp)
	}
	sort.Slice(creds, func(i, j int) bool { return creds[i].CreatedAt < creds[j].CreatedAt })
	return creds
}

func (c *Catalog) DeleteCredential(ctx context.Context, guid uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.credentials, guid)
	return nil
}

func (c *Catalog) DeleteCredentialsForUser(ctx context.Context, userGUID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for guid, cr := range c.credentials {
		if cr.UserGUID == userGUID {
			delete(c.credentials, guid)
		}
	}
	return nil
}

// ============================================================================
// Bucket Operations
// ============================================================================

func (c *Catalog) AddBucket(ctx context.Context, bucket *types.BucketConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[bucket.OwnerGUID]; !ok {
		return catalog.ErrUserNotFound
	}
	if _, exists := c.buckets[bucket.GUID]; exists {
		return catalog.ErrDuplicateKey
	}
	for _, b := range c.buckets {
		if b.Name == bucket.Name {
			return catalog.ErrDuplicateKey
		}
	}
	cp := *bucket
	c.buckets[bucket.GUID] = &cp
	return nil
}

func (c *Catalog) GetBucketByGUID(ctx context.Context, guid uuid.UUID) (*types.BucketConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.buckets[guid]
	if !ok {
		return nil, catalog.ErrBucketNotFound
	}
	cp := *b
	return &cp, nil
}

func (c *Catalog) GetBucketByName(ctx context.Context, name string) (*types.BucketConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, b := range c.buckets {
		if b.Name == name {
			cp := *b
			return &cp, nil
		}
	}
	return nil, catalog.ErrBucketNotFound
}

func (c *Catalog) ListBuckets(ctx context.Context) ([]*types.BucketConfig, error) {
	return c.listBuckets(uuid.Nil), nil
}

func (c *Catalog) ListBucketsForOwner(ctx context.Context, ownerGUID uuid.UUID) ([]*types.BucketConfig, error) {
	return c.listBuckets(ownerGUID), nil
}

func (c *Catalog) listBuckets(ownerGUID uuid.UUID) []*types.BucketConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buckets := make([]*types.BucketConfig, 0, len(c.buckets))
	for _, b := range c.buckets {
		if ownerGUID != uuid.Nil && b.OwnerGUID != ownerGUID {
			continue
		}
		cp := *b
		buckets = append(buckets, &cp)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets
}

func (c *Catalog) DeleteBucket(ctx context.Context, guid uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.buckets, guid)
	return nil
}

// ============================================================================
// Transactions
// ============================================================================

// WithTx snapshots the catalog, runs fn, and restores the snapshot if fn
// fails. This mirrors the all-or-nothing behavior of the SQL store.
func (c *Catalog) WithTx(ctx context.Context, fn func(tx catalog.TxStore) error) error {
	c.mu.Lock()
	users := make(map[uuid.UUID]*types.User, len(c.users))
	for k, v := range c.users {
		cp := *v
		users[k] = &cp
	}
	credentials := make(map[uuid.UUID]*types.Credential, len(c.credentials))
	for k, v := range c.credentials {
		cp := *v
		credentials[k] = &cp
	}
	buckets := make(map[uuid.UUID]*types.BucketConfig, len(c.buckets))
	for k, v := range c.buckets {
		cp := *v
		buckets[k] = &cp
	}
	c.mu.Unlock()

	if err := fn(c); err != nil {
		c.mu.Lock()
		c.users = users
		c.credentials = credentials
		c.buckets = buckets
		c.mu.Unlock()
		return err
	}
	return nil
}

// Migrate is a no-op for the in-memory catalog.
func (c *Catalog) Migrate(ctx context.Context) error {
	return nil
}

func (c *Catalog) Close() error {
	return nil
}
