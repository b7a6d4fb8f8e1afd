// Package backend provides storage backend implementations.
// All backends implement types.BackendStorage interface.
package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
)

// ErrNotFound reports a read of a storage id that holds no bytes.
// Backends return it wrapped from Read, ReadRange and Size so callers
// can tell a missing id from an unavailable backend with errors.Is.
var ErrNotFound = errors.New("storage id not found")

// Registry holds registered backend factories
var (
	registryMu sync.RWMutex
	registry   = make(map[types.StorageType]Factory)
)

// Factory creates a BackendStorage from config
type Factory func(cfg types.BackendConfig) (types.BackendStorage, error)

// Register adds a factory for a storage type
func Register(t types.StorageType, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// New creates a BackendStorage from config
func New(cfg types.BackendConfig) (types.BackendStorage, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	return f(cfg)
}

// Manager tracks the storage backend of each open bucket, keyed by
// bucket GUID. The bucket manager opens a backend here when it opens a
// bucket and removes it when the bucket closes, so the registry and
// the OpenBackends gauge track the set of live backends.
type Manager struct {
	mu       sync.RWMutex
	backends map[uuid.UUID]types.BackendStorage
}

// NewManager creates an empty backend registry.
func NewManager() *Manager {
	return &Manager{
		backends: make(map[uuid.UUID]types.BackendStorage),
	}
}

// Open creates the backend for a bucket and registers it under the
// bucket GUID. A backend already registered under the GUID is closed
// and replaced.
func (m *Manager) Open(guid uuid.UUID, cfg types.BackendConfig) (types.BackendStorage, error) {
	storage, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create backend %s: %w", guid, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, exists := m.backends[guid]; exists {
		old.Close()
	}
	m.backends[guid] = storage
	OpenBackends.Set(float64(len(m.backends)))
	return storage, nil
}

// Get retrieves the backend registered for a bucket GUID.
func (m *Manager) Get(guid uuid.UUID) (types.BackendStorage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[guid]
	return b, ok
}

// Remove closes and drops a bucket's backend. Unknown GUIDs are a
// no-op, so close paths can call it unconditionally.
func (m *Manager) Remove(guid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.backends[guid]; ok {
		b.Close()
		delete(m.backends, guid)
		OpenBackends.Set(float64(len(m.backends)))
	}
	return nil
}

// Close closes all registered backends. Called on server shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.backends {
		b.Close()
	}
	m.backends = make(map[uuid.UUID]types.BackendStorage)
	OpenBackends.Set(0)
	return nil
}
