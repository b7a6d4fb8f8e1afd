// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

// Package manager orchestrates bucket lifecycle: provisioning, lazy
// open, close, and destruction. It owns the registry of open buckets
// and hands out metadata store + storage backend pairs to the service
// layer.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coldbrook-labs/shale/pkg/catalog"
	"github.com/coldbrook-labs/shale/pkg/logger"
	"github.com/coldbrook-labs/shale/pkg/metastore"
	"github.com/coldbrook-labs/shale/pkg/storage/backend"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrBucketNotFound reports that no catalog row exists for the
	// requested bucket.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrBucketNotAvailable reports an operation against a bucket that
	// is mid-provisioning or mid-removal.
	ErrBucketNotAvailable = errors.New("bucket not available")

	// ErrBucketExists reports a create against a name already in use.
	ErrBucketExists = errors.New("bucket already exists")
)

// Config holds bucket manager configuration.
type Config struct {
	// DataDir is the root under which per-bucket metadata files and
	// object directories are provisioned.
	DataDir string

	// Backend is the storage backend template. For the local backend
	// each bucket gets its own objects directory under DataDir; other
	// backends are shared as configured.
	Backend types.BackendConfig
}

// Manager ties catalog rows to physical metadata store + backend pairs.
type Manager struct {
	cat catalog.Catalog
	cfg Config

	// Storage backends of open buckets, keyed by bucket GUID. Kept in
	// lockstep with the open map below.
	backends *backend.Manager

	mu     sync.RWMutex
	open   map[uuid.UUID]*Bucket
	byName map[string]uuid.UUID

	// Collapses concurrent lazy opens of the same bucket onto a single
	// open attempt.
	opening singleflight.Group
}

// New creates a bucket manager. The data directory is created if
// missing.
func New(cat catalog.Catalog, cfg Config) (*Manager, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data dir required")
	}
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "buckets"), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &Manager{
		cat:      cat,
		cfg:      cfg,
		backends: backend.NewManager(),
		open:     make(map[uuid.UUID]*Bucket),
		byName:   make(map[string]uuid.UUID),
	}, nil
}

// databaseFile returns the metadata store path for a bucket GUID.
func (m *Manager) databaseFile(guid uuid.UUID) string {
	return filepath.Join(m.cfg.DataDir, "buckets", guid.String()+".db")
}

// objectsDir returns the objects directory for a bucket GUID.
func (m *Manager) objectsDir(guid uuid.UUID) string {
	return filepath.Join(m.cfg.DataDir, "buckets", guid.String())
}

// backendConfigFor derives the per-bucket backend configuration from
// the template.
func (m *Manager) backendConfigFor(cfg types.BucketConfig) types.BackendConfig {
	bc := m.cfg.Backend
	if bc.Type == "" {
		bc.Type = types.StorageTypeLocal
	}
	if bc.Type == types.StorageTypeLocal {
		bc.Path = cfg.ObjectsDir
	}
	return bc
}

// CreateParams holds parameters for creating a bucket.
type CreateParams struct {
	Name        string
	OwnerGUID   uuid.UUID
	Versioning  bool
	PublicRead  bool
	PublicWrite bool
}

// Create provisions a new bucket: a fresh metadata store file, an
// objects directory, a catalog row, and an open registry entry. On any
// failure the partial artifacts are removed and the catalog is left
// unchanged.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*Bucket, error) {
	if err := ValidateBucketName(params.Name); err != nil {
		return nil, err
	}

	guid := uuid.New()
	cfg := types.BucketConfig{
		GUID:         guid,
		OwnerGUID:    params.OwnerGUID,
		Name:         params.Name,
		DatabaseFile: m.databaseFile(guid),
		ObjectsDir:   m.objectsDir(guid),
		Versioning:   params.Versioning,
		PublicRead:   params.PublicRead,
		PublicWrite:  params.PublicWrite,
		CreatedAt:    time.Now().UTC().UnixNano(),
	}

	if err := os.MkdirAll(cfg.ObjectsDir, 0755); err != nil {
		return nil, fmt.Errorf("provision objects dir: %w", err)
	}

	meta, err := metastore.Open(cfg.DatabaseFile, cfg.Versioning)
	if err != nil {
		m.removeArtifacts(cfg)
		return nil, fmt.Errorf("provision metadata store: %w", err)
	}

	storage, err := m.backends.Open(guid, m.backendConfigFor(cfg))
	if err != nil {
		meta.Close()
		m.removeArtifacts(cfg)
		return nil, fmt.Errorf("provision storage backend: %w", err)
	}

	// Catalog row is registered last so a failure leaves nothing to
	// roll back there.
	if err := m.cat.AddBucket(ctx, &cfg); err != nil {
		meta.Close()
		m.backends.Remove(guid)
		m.removeArtifacts(cfg)
		if errors.Is(err, catalog.ErrDuplicateKey) {
			return nil, ErrBucketExists
		}
		return nil, fmt.Errorf("register bucket: %w", err)
	}

	b := newBucket(cfg, meta, storage)
	b.markOpen()

	m.mu.Lock()
	m.open[guid] = b
	m.byName[cfg.Name] = guid
	openBuckets.Set(float64(len(m.open)))
	m.mu.Unlock()

	logger.Info().
		Str("bucket", cfg.Name).
		Str("guid", guid.String()).
		Bool("versioning", cfg.Versioning).
		Msg("bucket created")
	BucketOperations.WithLabelValues("create").Inc()
	return b, nil
}

// Get returns the open bucket for a name or GUID, opening it from its
// persisted paths on first access. Returns ErrBucketNotFound if no
// catalog row exists.
func (m *Manager) Get(ctx context.Context, identifier string) (*Bucket, error) {
	if b, ok := m.lookup(identifier); ok {
		if b.State() != StateOpen {
			return nil, ErrBucketNotAvailable
		}
		return b, nil
	}

	cfg, err := m.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	v, err, _ := m.opening.Do(cfg.GUID.String(), func() (interface{}, error) {
		// A racing open may have finished while we queued.
		m.mu.RLock()
		b, ok := m.open[cfg.GUID]
		m.mu.RUnlock()
		if ok {
			return b, nil
		}
		return m.openBucket(*cfg)
	})
	if err != nil {
		return nil, err
	}

	b := v.(*Bucket)
	if b.State() != StateOpen {
		return nil, ErrBucketNotAvailable
	}
	return b, nil
}

// lookup checks the registry by name or GUID.
func (m *Manager) lookup(identifier string) (*Bucket, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if guid, err := uuid.Parse(identifier); err == nil {
		b, ok := m.open[guid]
		return b, ok
	}
	guid, ok := m.byName[identifier]
	if !ok {
		return nil, false
	}
	b, ok := m.open[guid]
	return b, ok
}

// resolve finds the catalog row for a name or GUID.
func (m *Manager) resolve(ctx context.Context, identifier string) (*types.BucketConfig, error) {
	var (
		cfg *types.BucketConfig
		err error
	)
	if guid, perr := uuid.Parse(identifier); perr == nil {
		cfg, err = m.cat.GetBucketByGUID(ctx, guid)
	} else {
		cfg, err = m.cat.GetBucketByName(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, catalog.ErrBucketNotFound) {
			return nil, ErrBucketNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// openBucket opens a bucket from its persisted paths and registers it.
func (m *Manager) openBucket(cfg types.BucketConfig) (*Bucket, error) {
	meta, err := metastore.Open(cfg.DatabaseFile, cfg.Versioning)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	storage, err := m.backends.Open(cfg.GUID, m.backendConfigFor(cfg))
	if err != nil {
		meta.Close()
		return nil, fmt.Errorf("open storage backend: %w", err)
	}

	b := newBucket(cfg, meta, storage)
	b.markOpen()

	m.mu.Lock()
	m.open[cfg.GUID] = b
	m.byName[cfg.Name] = cfg.GUID
	openBuckets.Set(float64(len(m.open)))
	m.mu.Unlock()

	logger.Debug().
		Str("bucket", cfg.Name).
		Str("guid", cfg.GUID.String()).
		Msg("bucket opened")
	BucketOperations.WithLabelValues("open").Inc()
	return b, nil
}

// Remove closes a bucket and deletes its catalog row. With destroy set,
// the metadata store file and objects directory are deleted as well,
// irreversibly. The catalog row is removed before any physical
// deletion so a crash mid-operation never leaves a catalog entry
// pointing at missing files.
func (m *Manager) Remove(ctx context.Context, identifier string, destroy bool) error {
	cfg, err := m.resolve(ctx, identifier)
	if err != nil {
		return err
	}

	// Stop new operations and drain in-flight ones before touching
	// anything on disk.
	m.mu.Lock()
	b, isOpen := m.open[cfg.GUID]
	delete(m.open, cfg.GUID)
	delete(m.byName, cfg.Name)
	openBuckets.Set(float64(len(m.open)))
	m.mu.Unlock()

	if isOpen {
		b.beginClose()
	}

	if err := m.cat.DeleteBucket(ctx, cfg.GUID); err != nil {
		// Reopen on next Get; nothing physical was touched.
		return fmt.Errorf("delete bucket row: %w", err)
	}

	if isOpen {
		if err := b.close(); err != nil {
			logger.Warn().Err(err).Str("bucket", cfg.Name).Msg("close bucket handles")
		}
		m.backends.Remove(cfg.GUID)
	}

	if destroy {
		m.removeArtifacts(*cfg)
		logger.Info().
			Str("bucket", cfg.Name).
			Str("guid", cfg.GUID.String()).
			Msg("bucket destroyed")
		BucketOperations.WithLabelValues("destroy").Inc()
	} else {
		logger.Info().
			Str("bucket", cfg.Name).
			Str("guid", cfg.GUID.String()).
			Msg("bucket removed, files retained")
		BucketOperations.WithLabelValues("remove").Inc()
	}
	return nil
}

// removeArtifacts deletes a bucket's physical files. Best effort: the
// catalog row is already gone, so leftovers are orphans, not dangling
// references.
func (m *Manager) removeArtifacts(cfg types.BucketConfig) {
	for _, path := range []string{
		cfg.DatabaseFile,
		cfg.DatabaseFile + "-wal",
		cfg.DatabaseFile + "-shm",
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("remove metadata file")
		}
	}
	if err := os.RemoveAll(cfg.ObjectsDir); err != nil {
		logger.Warn().Err(err).Str("path", cfg.ObjectsDir).Msg("remove objects dir")
	}
}

// Purge closes and tears down a bucket whose catalog row was already
// removed, as in cascading user deletes where all rows drop in one
// transaction. Drains in-flight operations before touching files.
func (m *Manager) Purge(cfg types.BucketConfig, destroy bool) {
	m.mu.Lock()
	b, isOpen := m.open[cfg.GUID]
	delete(m.open, cfg.GUID)
	delete(m.byName, cfg.Name)
	openBuckets.Set(float64(len(m.open)))
	m.mu.Unlock()

	if isOpen {
		b.beginClose()
		if err := b.close(); err != nil {
			logger.Warn().Err(err).Str("bucket", cfg.Name).Msg("close bucket handles")
		}
		m.backends.Remove(cfg.GUID)
	}
	if destroy {
		m.removeArtifacts(cfg)
		BucketOperations.WithLabelValues("destroy").Inc()
	}
}

// Teardown closes all open buckets. Called on server shutdown.
func (m *Manager) Teardown() error {
	m.mu.Lock()
	buckets := make([]*Bucket, 0, len(m.open))
	for _, b := range m.open {
		buckets = append(buckets, b)
	}
	m.open = make(map[uuid.UUID]*Bucket)
	m.byName = make(map[string]uuid.UUID)
	openBuckets.Set(0)
	m.mu.Unlock()

	var firstErr error
	for _, b := range buckets {
		b.beginClose()
		if err := b.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.backends.Close()
	return firstErr
}
