package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/coldbrook-labs/shale/pkg/types"
)

func init() {
	Register(types.StorageTypeLocal, NewLocal)
}

// Local implements BackendStorage for the local filesystem.
// Writes go to a temporary file in the same directory and are renamed
// into place, so a concurrent reader of the same id observes either the
// old bytes or the new bytes, never a mix.
type Local struct {
	basePath string
}

// NewLocal creates a local filesystem backend
func NewLocal(cfg types.BackendConfig) (types.BackendStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path required for local backend")
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}

	return &Local{basePath: cfg.Path}, nil
}

func (l *Local) Type() types.StorageType {
	return types.StorageTypeLocal
}

// idPath shards ids into two-character prefix directories to keep
// directory fan-out bounded.
func (l *Local) idPath(id string) string {
	if len(id) > 2 {
		return filepath.Join(l.basePath, id[:2], id)
	}
	return filepath.Join(l.basePath, id)
}

func (l *Local) Write(ctx context.Context, id string, data io.Reader, size int64) error {
	path := l.idPath(id)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write data: %w", err)
	}
	if size >= 0 && written != size {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("short write: got %d bytes, want %d", written, size)
	}

	if err := Fdatasync(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	// Rename is the commit point: after this the new bytes are visible
	// atomically under id.
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func (l *Local) Read(ctx context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(l.idPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return f, nil
}

func (l *Local) ReadRange(ctx context.Context, id string, offset, length int64) (io.ReadCloser, error) {
	f, err := os.Open(l.idPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek: %w", err)
	}

	if length > 0 {
		return &limitedReadCloser{
			Reader: io.LimitReader(f, length),
			Closer: f,
		}, nil
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, id string) error {
	err := os.Remove(l.idPath(id))
	if os.IsNotExist(err) {
		return nil // Already gone
	}
	return err
}

func (l *Local) Exists(ctx context.Context, id string) (bool, error) {
	_, err := os.Stat(l.idPath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) Size(ctx context.Context, id string) (int64, error) {
	info, err := os.Stat(l.idPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return 0, err
	}
	return info.Size(), nil
}

func (l *Local) Close() error {
	return nil
}

// limitedReadCloser wraps a limited reader with a closer
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
