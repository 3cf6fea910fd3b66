package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
)

var _ blobstore.BlobStore = (*FSStore)(nil)

func newStore(t *testing.T) *FSStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, store.Put(ctx, "user-1", "p1.png", data))

	got, err := store.Get(ctx, "user-1", "p1.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestThumbnailKeyCreatesSubdirectory(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	key := blobstore.ThumbnailKey("p1.png")
	require.NoError(t, store.Put(ctx, "user-1", key, []byte("thumb")))

	got, err := store.Get(ctx, "user-1", key)
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), got)
}

func TestGetMissingBlob(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), "user-1", "missing.png")
	assert.ErrorIs(t, err, blobstore.ErrBlobNotFound)
}

func TestNamespacesAreIsolated(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "user-1", "p1.png", []byte("one")))

	_, err := store.Get(ctx, "user-2", "p1.png")
	assert.ErrorIs(t, err, blobstore.ErrBlobNotFound)
}

func TestDeleteRemovesFile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "user-1", "p1.png", []byte("one")))
	require.NoError(t, store.Delete(ctx, "user-1", "p1.png"))

	_, err := store.Get(ctx, "user-1", "p1.png")
	assert.ErrorIs(t, err, blobstore.ErrBlobNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "user-1", "p1.png"), blobstore.ErrBlobNotFound)
}

func TestPathTraversalIsRejected(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "user-1", "../../escape.png", []byte("nope"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, blobstore.ErrBlobNotFound)

	_, statErr := os.Stat(filepath.Join(store.basePath, "..", "escape.png"))
	assert.True(t, os.IsNotExist(statErr))
}
