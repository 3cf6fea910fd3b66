package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
)

func TestPutGetDelete(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "user-1", "p1.png", []byte("one")))
	require.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, "user-1", "p1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	_, err = store.Get(ctx, "user-2", "p1.png")
	assert.ErrorIs(t, err, blobstore.ErrBlobNotFound)

	require.NoError(t, store.Delete(ctx, "user-1", "p1.png"))
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, store.Delete(ctx, "user-1", "p1.png"), blobstore.ErrBlobNotFound)
}

func TestStoredDataIsCopied(t *testing.T) {
	store := New()
	ctx := context.Background()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "user-1", "p1.png", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "user-1", "p1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "user-1", "p1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}
