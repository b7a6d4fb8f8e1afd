// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"sync"
	"sync/atomic"

	"github.com/coldbrook-labs/shale/pkg/metastore"
	"github.com/coldbrook-labs/shale/pkg/types"
)

// State is the lifecycle state of an open bucket.
type State int32

const (
	StateProvisioning State = iota
	StateOpen
	StateClosing
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateProvisioning:
		return "provisioning"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Bucket couples a bucket's metadata store with its storage backend.
// Object operations must be bracketed by Acquire/Release so removal can
// drain in-flight work before tearing down the underlying files.
type Bucket struct {
	config  types.BucketConfig
	meta    *metastore.Store
	storage types.BackendStorage

	state    atomic.Int32
	inflight sync.WaitGroup
}

func newBucket(cfg types.BucketConfig, meta *metastore.Store, storage types.BackendStorage) *Bucket {
	b := &Bucket{
		config:  cfg,
		meta:    meta,
		storage: storage,
	}
	b.state.Store(int32(StateProvisioning))
	return b
}

// Config returns the bucket's catalog row.
func (b *Bucket) Config() types.BucketConfig {
	return b.config
}

// Meta returns the bucket's metadata store.
func (b *Bucket) Meta() *metastore.Store {
	return b.meta
}

// Storage returns the bucket's storage backend.
func (b *Bucket) Storage() types.BackendStorage {
	return b.storage
}

// State returns the current lifecycle state.
func (b *Bucket) State() State {
	return State(b.state.Load())
}

// Acquire registers an in-flight object operation. It fails with
// ErrBucketNotAvailable unless the bucket is Open. Every successful
// Acquire must be paired with a Release.
func (b *Bucket) Acquire() error {
	if State(b.state.Load()) != StateOpen {
		return ErrBucketNotAvailable
	}
	b.inflight.Add(1)

	// Re-check after registering: a concurrent close may have flipped
	// the state between the load and the Add.
	if State(b.state.Load()) != StateOpen {
		b.inflight.Done()
		return ErrBucketNotAvailable
	}
	return nil
}

// Release marks an in-flight operation finished.
func (b *Bucket) Release() {
	b.inflight.Done()
}

func (b *Bucket) markOpen() {
	b.state.Store(int32(StateOpen))
}

// beginClose moves the bucket out of Open so no new operations start,
// then waits for in-flight operations to drain.
func (b *Bucket) beginClose() {
	b.state.Store(int32(StateClosing))
	b.inflight.Wait()
}

// close shuts the metadata store. The storage backend is closed by the
// manager dropping it from its registry. The bucket accepts no
// operations afterward.
func (b *Bucket) close() error {
	err := b.meta.Close()
	b.state.Store(int32(StateRemoved))
	return err
}
