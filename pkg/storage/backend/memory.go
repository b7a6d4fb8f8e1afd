// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/coldbrook-labs/shale/pkg/types"
)

// StorageTypeMemory is used for testing
const StorageTypeMemory types.StorageType = "memory"

func init() {
	Register(StorageTypeMemory, func(cfg types.BackendConfig) (types.BackendStorage, error) {
		return NewMemoryStorage(), nil
	})
}

// MemoryStorage is an in-memory backend for testing.
// Writes replace the stored slice under the lock, so readers holding an
// earlier slice keep a consistent snapshot.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string][]byte),
	}
}

func (m *MemoryStorage) Type() types.StorageType {
	return StorageTypeMemory
}

func (m *MemoryStorage) Write(ctx context.Context, id string, data io.Reader, size int64) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(buf)) != size {
		return fmt.Errorf("short write: got %d bytes, want %d", len(buf), size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = buf
	return nil
}

func (m *MemoryStorage) Read(ctx context.Context, id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStorage) ReadRange(ctx context.Context, id string, offset, length int64) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	end := int64(len(data))
	if length > 0 && offset+length < end {
		end = offset + length
	}
	return io.NopCloser(bytes.NewReader(data[offset:end])), nil
}

func (m *MemoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MemoryStorage) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[id]
	return ok, nil
}

func (m *MemoryStorage) Size(ctx context.Context, id string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return int64(len(data)), nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
