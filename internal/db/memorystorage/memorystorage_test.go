package memorystorage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/cloudalbum/internal/db/storage"
	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

func newStorage(t *testing.T) *MemoryStorage {
	t.Helper()

	theStorage, err := New()
	require.NoError(t, err)

	return theStorage
}

func TestCreateUserAssignsIDAndRejectsDuplicateEmail(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	userID, err := theStorage.CreateUser(ctx, &user.User{Email: "a@x.com", Username: "a"})
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	_, err = theStorage.CreateUser(ctx, &user.User{Email: "a@x.com", Username: "other"})
	assert.ErrorIs(t, err, storage.ErrEmailAlreadyExists)

	usr, err := theStorage.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a", usr.Username, "the duplicate signup must not overwrite the first user")

	byID, err := theStorage.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byID.ID)
}

func TestGetUserNotFound(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	_, err := theStorage.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = theStorage.GetUserByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestPhotosAreOwnerScoped(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	require.NoError(t, theStorage.PutPhoto(ctx, "owner-a", &photo.Photo{ID: "p1", Filename: "p1.jpg"}))

	_, err := theStorage.GetPhoto(ctx, "owner-b", "p1")
	assert.ErrorIs(t, err, storage.ErrPhotoNotFound)

	err = theStorage.DeletePhoto(ctx, "owner-b", "p1")
	assert.ErrorIs(t, err, storage.ErrPhotoNotFound)

	photos, err := theStorage.GetUserPhotos(ctx, "owner-b")
	require.NoError(t, err)
	assert.Empty(t, photos)

	pht, err := theStorage.GetPhoto(ctx, "owner-a", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1.jpg", pht.Filename)
}

func TestPutPhotoCrossOwnerConflict(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	require.NoError(t, theStorage.PutPhoto(ctx, "owner-a", &photo.Photo{ID: "p1"}))

	err := theStorage.PutPhoto(ctx, "owner-b", &photo.Photo{ID: "p1"})
	assert.ErrorIs(t, err, storage.ErrPhotoConflict)
}

func TestPutPhotoSameOwnerReplaces(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	require.NoError(t, theStorage.PutPhoto(ctx, "owner-a", &photo.Photo{ID: "p1", Tags: "old"}))
	require.NoError(t, theStorage.PutPhoto(ctx, "owner-a", &photo.Photo{ID: "p1", Tags: "new"}))

	pht, err := theStorage.GetPhoto(ctx, "owner-a", "p1")
	require.NoError(t, err)
	assert.Equal(t, "new", pht.Tags)

	photos, err := theStorage.GetUserPhotos(ctx, "owner-a")
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}

func TestGetUserPhotosKeepsInsertionOrder(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, theStorage.PutPhoto(ctx, "owner-a", &photo.Photo{
			ID:        fmt.Sprintf("p%d", i),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}))
	}

	photos, err := theStorage.GetUserPhotos(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, photos, 5)
	for i, pht := range photos {
		assert.Equal(t, fmt.Sprintf("p%d", i), pht.ID)
	}
}

func TestDeletePhotoIsNotIdempotent(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	require.NoError(t, theStorage.PutPhoto(ctx, "owner-a", &photo.Photo{ID: "p1"}))

	require.NoError(t, theStorage.DeletePhoto(ctx, "owner-a", "p1"))
	assert.ErrorIs(t, theStorage.DeletePhoto(ctx, "owner-a", "p1"), storage.ErrPhotoNotFound)
}

func TestRevokeToken(t *testing.T) {
	theStorage := newStorage(t)
	ctx := context.Background()

	revoked, err := theStorage.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, theStorage.RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = theStorage.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// An expired revocation no longer matters: the token itself is
	// already invalid by then.
	require.NoError(t, theStorage.RevokeToken(ctx, "jti-2", time.Now().Add(-time.Minute)))

	revoked, err = theStorage.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPingAndClose(t *testing.T) {
	theStorage := newStorage(t)

	assert.NoError(t, theStorage.Ping(context.Background()))
	assert.NoError(t, theStorage.Close())
}
