package object

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/coldbrook-labs/shale/pkg/catalog/memory"
	"github.com/coldbrook-labs/shale/pkg/manager"
	"github.com/coldbrook-labs/shale/pkg/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *manager.Manager, uuid.UUID) {
	t.Helper()

	cat := memory.New()
	owner := uuid.New()
	err := cat.AddUser(context.Background(), &types.User{
		GUID:      owner,
		Name:      "tester",
		Email:     "tester@example.com",
		CreatedAt: time.Now().UTC().UnixNano(),
	})
	require.NoError(t, err)

	mgr, err := manager.New(cat, manager.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Teardown() })

	svc, err := NewService(mgr)
	require.NoError(t, err)
	return svc, mgr, owner
}

func mustCreateBucket(t *testing.T, mgr *manager.Manager, owner uuid.UUID, name string, versioning bool) *manager.Bucket {
	t.Helper()
	b, err := mgr.Create(context.Background(), manager.CreateParams{
		Name:       name,
		OwnerGUID:  owner,
		Versioning: versioning,
	})
	require.NoError(t, err)
	return b
}

func readAll(t *testing.T, stream *types.ObjectStream) string {
	t.Helper()
	defer stream.Close()
	data, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	return string(data)
}

func TestPutObject_GetObject_Roundtrip(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "roundtrip", false)
	ctx := context.Background()

	content := "hello shale"
	put, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket:        "roundtrip",
		Key:           "file.txt",
		Body:          strings.NewReader(content),
		ContentLength: int64(len(content)),
	})
	require.NoError(t, err)
	require.NotNil(t, put.Record)
	assert.Equal(t, "file.txt", put.Record.Key)
	assert.Equal(t, int64(len(content)), put.Record.Size)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), put.Record.Checksum)

	got, err := svc.GetObject(ctx, &GetObjectRequest{Bucket: "roundtrip", Key: "file.txt"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), got.Stream.ContentLength)
	assert.Equal(t, content, readAll(t, got.Stream))
}

func TestPutObject_UnknownContentLength(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "chunked", false)
	ctx := context.Background()

	put, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket:        "chunked",
		Key:           "stream.bin",
		Body:          strings.NewReader("streamed body"),
		ContentLength: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len("streamed body")), put.Record.Size)
}

func TestPutObject_Validation(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "validate", false)
	ctx := context.Background()

	_, err := svc.PutObject(ctx, &PutObjectRequest{Bucket: "validate", Key: "", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, err.(*Error).Code)

	_, err = svc.PutObject(ctx, &PutObjectRequest{Bucket: "validate", Key: "k", Body: nil})
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, err.(*Error).Code)
}

func TestPutObject_BucketNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.PutObject(context.Background(), &PutObjectRequest{
		Bucket:        "missing",
		Key:           "k",
		Body:          strings.NewReader("x"),
		ContentLength: 1,
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeBucketNotFound, err.(*Error).Code)
}

func TestPutObject_NonVersioned_Supersedes(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	b := mustCreateBucket(t, mgr, owner, "overwrite", false)
	ctx := context.Background()

	first, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "overwrite", Key: "file.txt",
		Body: strings.NewReader("1234567890"), ContentLength: 10,
	})
	require.NoError(t, err)

	second, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "overwrite", Key: "file.txt",
		Body: strings.NewReader("12345678901234567890"), ContentLength: 20,
	})
	require.NoError(t, err)

	// Exactly one live record, reporting the new size
	got, err := svc.HeadObject(ctx, "overwrite", "file.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Record.Size)

	count, err := b.Meta().CountObjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Superseded bytes are reclaimed, new bytes remain
	exists, err := b.Storage().Exists(ctx, first.Record.StorageID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = b.Storage().Exists(ctx, second.Record.StorageID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPutObject_Versioned_Monotonic(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "versioned", true)
	ctx := context.Background()

	var lastVersion int64
	for i := 1; i <= 5; i++ {
		content := fmt.Sprintf("revision %d", i)
		put, err := svc.PutObject(ctx, &PutObjectRequest{
			Bucket: "versioned", Key: "doc.txt",
			Body: strings.NewReader(content), ContentLength: int64(len(content)),
		})
		require.NoError(t, err)
		assert.Greater(t, put.Record.Version, lastVersion)
		lastVersion = put.Record.Version
	}

	// Latest wins without a version, old versions stay readable
	got, err := svc.GetObject(ctx, &GetObjectRequest{Bucket: "versioned", Key: "doc.txt"})
	require.NoError(t, err)
	assert.Equal(t, "revision 5", readAll(t, got.Stream))

	got, err = svc.GetObject(ctx, &GetObjectRequest{Bucket: "versioned", Key: "doc.txt", Version: 2})
	require.NoError(t, err)
	assert.Equal(t, "revision 2", readAll(t, got.Stream))
}

func TestGetObject_Range(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "ranged", false)
	ctx := context.Background()

	_, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "ranged", Key: "data.bin",
		Body: strings.NewReader("0123456789"), ContentLength: 10,
	})
	require.NoError(t, err)

	got, err := svc.GetObject(ctx, &GetObjectRequest{
		Bucket: "ranged", Key: "data.bin",
		Range: &ByteRange{Offset: 2, Length: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Stream.ContentLength)
	assert.Equal(t, "2345", readAll(t, got.Stream))

	// Open-ended range reads to the end
	got, err = svc.GetObject(ctx, &GetObjectRequest{
		Bucket: "ranged", Key: "data.bin",
		Range: &ByteRange{Offset: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Stream.ContentLength)
	assert.Equal(t, "6789", readAll(t, got.Stream))
}

func TestGetObject_NotFound(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "empty", false)

	_, err := svc.GetObject(context.Background(), &GetObjectRequest{Bucket: "empty", Key: "missing"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetObject_MissingBytes(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	b := mustCreateBucket(t, mgr, owner, "torn", false)
	ctx := context.Background()

	content := "soon gone"
	put, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket:        "torn",
		Key:           "file.txt",
		Body:          strings.NewReader(content),
		ContentLength: int64(len(content)),
	})
	require.NoError(t, err)

	// Pull the bytes out from under the record. The record still
	// resolves, so the failure surfaces as not-found, not unavailable.
	require.NoError(t, b.Storage().Delete(ctx, put.Record.StorageID))

	_, err = svc.GetObject(ctx, &GetObjectRequest{Bucket: "torn", Key: "file.txt"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = svc.GetObject(ctx, &GetObjectRequest{
		Bucket: "torn",
		Key:    "file.txt",
		Range:  &ByteRange{Offset: 0, Length: 4},
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestDeleteObject_NonVersioned_ReclaimsBytes(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	b := mustCreateBucket(t, mgr, owner, "reclaim", false)
	ctx := context.Background()

	put, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "reclaim", Key: "gone.txt",
		Body: strings.NewReader("bytes"), ContentLength: 5,
	})
	require.NoError(t, err)

	res, err := svc.DeleteObject(ctx, "reclaim", "gone.txt")
	require.NoError(t, err)
	assert.False(t, res.DeleteMarker)

	_, err = svc.GetObject(ctx, &GetObjectRequest{Bucket: "reclaim", Key: "gone.txt"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	exists, err := b.Storage().Exists(ctx, put.Record.StorageID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteObject_Versioned_WritesMarker(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	b := mustCreateBucket(t, mgr, owner, "marker", true)
	ctx := context.Background()

	put, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "marker", Key: "keep.txt",
		Body: strings.NewReader("history"), ContentLength: 7,
	})
	require.NoError(t, err)

	res, err := svc.DeleteObject(ctx, "marker", "keep.txt")
	require.NoError(t, err)
	assert.True(t, res.DeleteMarker)

	// Latest is a marker, so plain get fails
	_, err = svc.GetObject(ctx, &GetObjectRequest{Bucket: "marker", Key: "keep.txt"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	// History and bytes are intact
	got, err := svc.GetObject(ctx, &GetObjectRequest{
		Bucket: "marker", Key: "keep.txt", Version: put.Record.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "history", readAll(t, got.Stream))

	exists, err := b.Storage().Exists(ctx, put.Record.StorageID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteObjectVersion_Purges(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	b := mustCreateBucket(t, mgr, owner, "purge", true)
	ctx := context.Background()

	v1, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "purge", Key: "doc", Body: strings.NewReader("one"), ContentLength: 3,
	})
	require.NoError(t, err)
	_, err = svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "purge", Key: "doc", Body: strings.NewReader("two"), ContentLength: 3,
	})
	require.NoError(t, err)

	_, err = svc.DeleteObjectVersion(ctx, "purge", "doc", v1.Record.Version)
	require.NoError(t, err)

	_, err = svc.GetObject(ctx, &GetObjectRequest{Bucket: "purge", Key: "doc", Version: v1.Record.Version})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	exists, err := b.Storage().Exists(ctx, v1.Record.StorageID)
	require.NoError(t, err)
	assert.False(t, exists)

	// The surviving version is still the latest
	got, err := svc.GetObject(ctx, &GetObjectRequest{Bucket: "purge", Key: "doc"})
	require.NoError(t, err)
	assert.Equal(t, "two", readAll(t, got.Stream))
}

func TestListObjects_Pagination(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "listing", false)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		key := fmt.Sprintf("logs/part-%02d", i)
		_, err := svc.PutObject(ctx, &PutObjectRequest{
			Bucket: "listing", Key: key,
			Body: strings.NewReader("x"), ContentLength: 1,
		})
		require.NoError(t, err)
	}
	_, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "listing", Key: "other/file",
		Body: strings.NewReader("x"), ContentLength: 1,
	})
	require.NoError(t, err)

	var keys []string
	startAfter := ""
	for {
		res, err := svc.ListObjects(ctx, &ListObjectsRequest{
			Bucket:     "listing",
			Prefix:     "logs/",
			StartAfter: startAfter,
			MaxKeys:    3,
		})
		require.NoError(t, err)
		require.LessOrEqual(t, len(res.Records), 3)
		for _, rec := range res.Records {
			keys = append(keys, rec.Key)
		}
		if !res.IsTruncated {
			break
		}
		startAfter = res.NextKey
	}

	require.Len(t, keys, 7)
	for i, key := range keys {
		assert.Equal(t, fmt.Sprintf("logs/part-%02d", i), key)
	}
}

func TestGetObject_StreamHoldsBucketOpen(t *testing.T) {
	t.Parallel()

	svc, mgr, owner := newTestService(t)
	mustCreateBucket(t, mgr, owner, "held", false)
	ctx := context.Background()

	_, err := svc.PutObject(ctx, &PutObjectRequest{
		Bucket: "held", Key: "slow.txt",
		Body: strings.NewReader("still here"), ContentLength: 10,
	})
	require.NoError(t, err)

	got, err := svc.GetObject(ctx, &GetObjectRequest{Bucket: "held", Key: "slow.txt"})
	require.NoError(t, err)

	// Removal must wait for the open stream to be closed.
	removed := make(chan error, 1)
	go func() {
		removed <- mgr.Remove(ctx, "held", true)
	}()

	select {
	case <-removed:
		t.Fatal("remove finished while a stream was open")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, "still here", readAll(t, got.Stream))
	require.NoError(t, <-removed)
}
