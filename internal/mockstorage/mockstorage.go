// Package mockstorage provides a testify-based mock implementation
// of the storage interface. It is used for unit testing HTTP handlers
// and services by simulating storage behavior.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks inserting a new user.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by id.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// GetUserByEmail mocks fetching a user by email.
func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// GetUsers mocks listing all users.
func (m *StorageMock) GetUsers(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*user.User)
	return users, args.Error(1)
}

// PutPhoto mocks registering a photo.
func (m *StorageMock) PutPhoto(ctx context.Context, ownerID string, pht *photo.Photo) error {
	args := m.Called(ctx, ownerID, pht)
	return args.Error(0)
}

// GetUserPhotos mocks listing an owner's photos.
func (m *StorageMock) GetUserPhotos(ctx context.Context, ownerID string) ([]*photo.Photo, error) {
	args := m.Called(ctx, ownerID)
	photos, _ := args.Get(0).([]*photo.Photo)
	return photos, args.Error(1)
}

// GetPhoto mocks fetching one of the owner's photos.
func (m *StorageMock) GetPhoto(ctx context.Context, ownerID, photoID string) (*photo.Photo, error) {
	args := m.Called(ctx, ownerID, photoID)
	pht, _ := args.Get(0).(*photo.Photo)
	return pht, args.Error(1)
}

// DeletePhoto mocks removing a registry entry.
func (m *StorageMock) DeletePhoto(ctx context.Context, ownerID, photoID string) error {
	args := m.Called(ctx, ownerID, photoID)
	return args.Error(0)
}

// RevokeToken mocks denylisting a token id.
func (m *StorageMock) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

// IsTokenRevoked mocks the revocation check.
func (m *StorageMock) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
