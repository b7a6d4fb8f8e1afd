package backend

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Registry Tests
// ============================================================================

func TestRegister_CustomType(t *testing.T) {
	t.Parallel()

	customType := types.StorageType("test-custom")

	Register(customType, func(cfg types.BackendConfig) (types.BackendStorage, error) {
		return NewMemoryStorage(), nil
	})

	backend, err := New(types.BackendConfig{Type: customType})
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.Equal(t, StorageTypeMemory, backend.Type())
}

func TestNew_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := New(types.BackendConfig{Type: "unknown-type"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestNew_MemoryType(t *testing.T) {
	t.Parallel()

	backend, err := New(types.BackendConfig{Type: StorageTypeMemory})
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.Equal(t, StorageTypeMemory, backend.Type())
}

// ============================================================================
// Manager Tests
// ============================================================================

func memoryConfig() types.BackendConfig {
	return types.BackendConfig{Type: StorageTypeMemory}
}

func TestManager_Open_Memory(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	guid := uuid.New()
	storage, err := mgr.Open(guid, memoryConfig())
	require.NoError(t, err)
	require.NotNil(t, storage)
	assert.Equal(t, StorageTypeMemory, storage.Type())

	got, ok := mgr.Get(guid)
	assert.True(t, ok)
	assert.Equal(t, storage, got)
}

func TestManager_Open_UnknownType(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	guid := uuid.New()
	_, err := mgr.Open(guid, types.BackendConfig{Type: "invalid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")

	_, ok := mgr.Get(guid)
	assert.False(t, ok)
}

func TestManager_Open_ReplacesExisting(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	guid := uuid.New()
	storage1, err := mgr.Open(guid, memoryConfig())
	require.NoError(t, err)
	err = storage1.Write(context.Background(), "obj1", strings.NewReader("data1"), 5)
	require.NoError(t, err)

	// Re-open under the same GUID closes the old backend
	storage2, err := mgr.Open(guid, memoryConfig())
	require.NoError(t, err)

	exists, err := storage2.Exists(context.Background(), "obj1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestManager_Get_NotFound(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	storage, ok := mgr.Get(uuid.New())
	assert.False(t, ok)
	assert.Nil(t, storage)
}

func TestManager_Remove(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	guid := uuid.New()
	_, err := mgr.Open(guid, memoryConfig())
	require.NoError(t, err)

	err = mgr.Remove(guid)
	require.NoError(t, err)

	_, ok := mgr.Get(guid)
	assert.False(t, ok)
}

func TestManager_Remove_NotFound(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	err := mgr.Remove(uuid.New())
	assert.NoError(t, err)
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	mgr := NewManager()

	guid1, guid2 := uuid.New(), uuid.New()
	_, err := mgr.Open(guid1, memoryConfig())
	require.NoError(t, err)
	_, err = mgr.Open(guid2, memoryConfig())
	require.NoError(t, err)

	require.NoError(t, mgr.Close())

	_, ok := mgr.Get(guid1)
	assert.False(t, ok)
	_, ok = mgr.Get(guid2)
	assert.False(t, ok)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	var wg sync.WaitGroup
	ctx := context.Background()

	shared := uuid.New()
	_, err := mgr.Open(shared, memoryConfig())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mgr.Open(uuid.New(), memoryConfig())
		}()
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mgr.Get(shared)
		}()
	}

	wg.Wait()

	final := uuid.New()
	storage, err := mgr.Open(final, memoryConfig())
	require.NoError(t, err)
	err = storage.Write(ctx, "test", strings.NewReader("data"), 4)
	assert.NoError(t, err)
}

// ============================================================================
// MemoryStorage Tests
// ============================================================================

func TestMemoryStorage_WriteRead(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	testData := []byte("hello world")

	err := ms.Write(ctx, "id1", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	reader, err := ms.Read(ctx, "id1")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, testData, data)
}

func TestMemoryStorage_Write_SizeMismatch(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	err := ms.Write(ctx, "id1", strings.NewReader("short"), 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short write")

	// Failed write leaves nothing behind
	exists, err := ms.Exists(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStorage_Read_NotFound(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()

	_, err := ms.Read(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_ReadRange(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	testData := []byte("0123456789")

	err := ms.Write(ctx, "id1", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	reader, err := ms.ReadRange(ctx, "id1", 3, 4)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("3456"), data)
}

func TestMemoryStorage_ReadRange_PastEnd(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	testData := []byte("short")

	err := ms.Write(ctx, "id1", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	reader, err := ms.ReadRange(ctx, "id1", 3, 100)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("rt"), data)
}

func TestMemoryStorage_ReadRange_OffsetPastEnd(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	testData := []byte("short")

	err := ms.Write(ctx, "id1", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	reader, err := ms.ReadRange(ctx, "id1", 100, 10)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMemoryStorage_Delete_Idempotent(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	err := ms.Write(ctx, "id1", strings.NewReader("data"), 4)
	require.NoError(t, err)

	require.NoError(t, ms.Delete(ctx, "id1"))

	exists, err := ms.Exists(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Second delete of the same id is a no-op
	assert.NoError(t, ms.Delete(ctx, "id1"))
}

func TestMemoryStorage_Size(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()
	ctx := context.Background()

	testData := []byte("hello world")
	err := ms.Write(ctx, "id1", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	size, err := ms.Size(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	_, err = ms.Size(ctx, "nonexistent")
	require.Error(t, err)
}

// ============================================================================
// Local Backend Tests
// ============================================================================

func newLocalBackend(t *testing.T) (types.BackendStorage, string) {
	t.Helper()
	tmpDir := t.TempDir()

	local, err := NewLocal(types.BackendConfig{
		Type: types.StorageTypeLocal,
		Path: tmpDir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	return local, tmpDir
}

func TestLocal_Type(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	assert.Equal(t, types.StorageTypeLocal, local.Type())
}

func TestLocal_NewLocal_NoPath(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(types.BackendConfig{
		Type: types.StorageTypeLocal,
		Path: "",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path required")
}

func TestLocal_WriteRead(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	testData := []byte("hello local storage")

	err := local.Write(ctx, "abcdef123", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	reader, err := local.Read(ctx, "abcdef123")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, testData, data)
}

func TestLocal_Write_ShardsByPrefix(t *testing.T) {
	t.Parallel()

	local, tmpDir := newLocalBackend(t)
	ctx := context.Background()

	err := local.Write(ctx, "abcdef", strings.NewReader("data"), 4)
	require.NoError(t, err)

	// Ids longer than two characters land in a prefix directory
	_, err = os.Stat(filepath.Join(tmpDir, "ab", "abcdef"))
	assert.NoError(t, err)
}

func TestLocal_Write_SizeMismatch(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	err := local.Write(ctx, "bad-size", strings.NewReader("tiny"), 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short write")

	// Aborted write leaves no object behind
	exists, err := local.Exists(ctx, "bad-size")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocal_Write_NoTempLeftover(t *testing.T) {
	t.Parallel()

	local, tmpDir := newLocalBackend(t)
	ctx := context.Background()

	err := local.Write(ctx, "cleanup-check", strings.NewReader("data"), 4)
	require.NoError(t, err)

	var temps []string
	err = filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasPrefix(info.Name(), ".write-") {
			temps = append(temps, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, temps)
}

func TestLocal_Read_NotFound(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)

	_, err := local.Read(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_ReadRange(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	testData := []byte("0123456789ABCDEF")

	err := local.Write(ctx, "range-test", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	reader, err := local.ReadRange(ctx, "range-test", 4, 8)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("456789AB"), data)
}

func TestLocal_ReadRange_ZeroLength(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	testData := []byte("0123456789")

	err := local.Write(ctx, "test-zero", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	// Zero length means read to end
	reader, err := local.ReadRange(ctx, "test-zero", 5, 0)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("56789"), data)
}

func TestLocal_Delete_Idempotent(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	err := local.Write(ctx, "to-delete", strings.NewReader("data"), 4)
	require.NoError(t, err)

	exists, _ := local.Exists(ctx, "to-delete")
	assert.True(t, exists)

	require.NoError(t, local.Delete(ctx, "to-delete"))

	exists, _ = local.Exists(ctx, "to-delete")
	assert.False(t, exists)

	assert.NoError(t, local.Delete(ctx, "to-delete"))
}

func TestLocal_Exists(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	exists, err := local.Exists(ctx, "test-id")
	require.NoError(t, err)
	assert.False(t, exists)

	err = local.Write(ctx, "test-id", strings.NewReader("data"), 4)
	require.NoError(t, err)

	exists, err = local.Exists(ctx, "test-id")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocal_Size(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	testData := []byte("hello world")
	err := local.Write(ctx, "size-test", bytes.NewReader(testData), int64(len(testData)))
	require.NoError(t, err)

	size, err := local.Size(ctx, "size-test")
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	_, err = local.Size(ctx, "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_WriteOverwrite(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	err := local.Write(ctx, "test-id", strings.NewReader("initial"), 7)
	require.NoError(t, err)

	err = local.Write(ctx, "test-id", strings.NewReader("overwritten data"), 16)
	require.NoError(t, err)

	reader, err := local.Read(ctx, "test-id")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "overwritten data", string(data))
}

func TestLocal_LargeFile(t *testing.T) {
	t.Parallel()

	local, _ := newLocalBackend(t)
	ctx := context.Background()

	// 2MB of data
	largeData := make([]byte, 2*1024*1024)
	for i := range largeData {
		largeData[i] = byte(i % 256)
	}

	err := local.Write(ctx, "large-file", bytes.NewReader(largeData), int64(len(largeData)))
	require.NoError(t, err)

	reader, err := local.Read(ctx, "large-file")
	require.NoError(t, err)
	defer reader.Close()

	readData, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, largeData, readData)

	size, err := local.Size(ctx, "large-file")
	require.NoError(t, err)
	assert.Equal(t, int64(2*1024*1024), size)
}

// ============================================================================
// Integration Tests
// ============================================================================

func TestManager_WithLocal(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	guid := uuid.New()
	storage, err := mgr.Open(guid, types.BackendConfig{
		Type: types.StorageTypeLocal,
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	require.NotNil(t, storage)

	ctx := context.Background()

	err = storage.Write(ctx, "mgr-test", strings.NewReader("manager data"), 12)
	require.NoError(t, err)

	reader, err := storage.Read(ctx, "mgr-test")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "manager data", string(data))
}

func TestManager_MultipleBackends(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	memBackend, err := mgr.Open(uuid.New(), memoryConfig())
	require.NoError(t, err)

	localBackend, err := mgr.Open(uuid.New(), types.BackendConfig{
		Type: types.StorageTypeLocal,
		Path: t.TempDir(),
	})
	require.NoError(t, err)

	ctx := context.Background()

	err = memBackend.Write(ctx, "id", strings.NewReader("memory data"), 11)
	require.NoError(t, err)

	err = localBackend.Write(ctx, "id", strings.NewReader("local data"), 10)
	require.NoError(t, err)

	// Backends keyed under different GUIDs are independent stores
	memReader, _ := memBackend.Read(ctx, "id")
	memData, _ := io.ReadAll(memReader)
	memReader.Close()
	assert.Equal(t, "memory data", string(memData))

	localReader, _ := localBackend.Read(ctx, "id")
	localData, _ := io.ReadAll(localReader)
	localReader.Close()
	assert.Equal(t, "local data", string(localData))
}
