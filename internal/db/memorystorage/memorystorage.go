// Package memorystorage provides an in-memory implementation of the
// storage interface. It backs local development and tests where no
// PostgreSQL instance is available.
package memorystorage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/cloudalbum/internal/db/storage"
	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

// MemoryStorage keeps all records in maps guarded by a single RWMutex.
// Photos are kept per owner in insertion order.
type MemoryStorage struct {
	mu sync.RWMutex

	users        map[string]*user.User
	usersByEmail map[string]*user.User

	// photoOwners maps a photo id to its owner for the cross-owner
	// conflict check.
	photoOwners map[string]string
	photos      map[string][]*photo.Photo

	revokedTokens map[string]time.Time
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:         map[string]*user.User{},
		usersByEmail:  map[string]*user.User{},
		photoOwners:   map[string]string{},
		photos:        map[string][]*photo.Photo{},
		revokedTokens: map[string]time.Time{},
	}, nil
}

// CreateUser stores a new user, assigning a UUID when the ID is empty.
func (theStorage *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, exists := theStorage.usersByEmail[usr.Email]; exists {
		return "", storage.ErrEmailAlreadyExists
	}

	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = time.Now()
	}

	stored := *usr
	theStorage.users[stored.ID] = &stored
	theStorage.usersByEmail[stored.Email] = &stored

	return stored.ID, nil
}

// GetUserByID returns the user or storage.ErrUserNotFound.
func (theStorage *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	usr, found := theStorage.users[userID]
	if !found {
		return nil, storage.ErrUserNotFound
	}

	result := *usr

	return &result, nil
}

// GetUserByEmail returns the user or storage.ErrUserNotFound.
func (theStorage *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	usr, found := theStorage.usersByEmail[email]
	if !found {
		return nil, storage.ErrUserNotFound
	}

	result := *usr

	return &result, nil
}

// GetUsers returns all users ordered by registration time.
func (theStorage *MemoryStorage) GetUsers(ctx context.Context) ([]*user.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	result := make([]*user.User, 0, len(theStorage.users))
	for _, usr := range theStorage.users {
		copied := *usr
		result = append(result, &copied)
	}

	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].CreatedAt.Before(result[j-1].CreatedAt); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}

	return result, nil
}

// PutPhoto inserts or replaces a photo keyed by (owner, id).
func (theStorage *MemoryStorage) PutPhoto(ctx context.Context, ownerID string, pht *photo.Photo) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if existingOwner, taken := theStorage.photoOwners[pht.ID]; taken && existingOwner != ownerID {
		return storage.ErrPhotoConflict
	}

	if pht.CreatedAt.IsZero() {
		pht.CreatedAt = time.Now()
	}

	stored := *pht
	stored.OwnerID = ownerID

	owned := theStorage.photos[ownerID]
	for i, existing := range owned {
		if existing.ID == stored.ID {
			stored.CreatedAt = existing.CreatedAt
			owned[i] = &stored
			pht.CreatedAt = stored.CreatedAt

			return nil
		}
	}

	theStorage.photos[ownerID] = append(owned, &stored)
	theStorage.photoOwners[stored.ID] = ownerID

	return nil
}

// GetUserPhotos returns the owner's photos in insertion order.
func (theStorage *MemoryStorage) GetUserPhotos(ctx context.Context, ownerID string) ([]*photo.Photo, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	owned := theStorage.photos[ownerID]
	result := make([]*photo.Photo, 0, len(owned))
	for _, pht := range owned {
		copied := *pht
		result = append(result, &copied)
	}

	return result, nil
}

// GetPhoto returns the photo or storage.ErrPhotoNotFound when it is
// absent or owned by a different user.
func (theStorage *MemoryStorage) GetPhoto(ctx context.Context, ownerID, photoID string) (*photo.Photo, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	for _, pht := range theStorage.photos[ownerID] {
		if pht.ID == photoID {
			result := *pht

			return &result, nil
		}
	}

	return nil, storage.ErrPhotoNotFound
}

// DeletePhoto removes the entry or reports storage.ErrPhotoNotFound.
func (theStorage *MemoryStorage) DeletePhoto(ctx context.Context, ownerID, photoID string) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	owned := theStorage.photos[ownerID]
	for i, pht := range owned {
		if pht.ID == photoID {
			theStorage.photos[ownerID] = append(owned[:i], owned[i+1:]...)
			delete(theStorage.photoOwners, photoID)

			return nil
		}
	}

	return storage.ErrPhotoNotFound
}

// RevokeToken records a signed-out token id until its expiry.
func (theStorage *MemoryStorage) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	theStorage.revokedTokens[tokenID] = expiresAt

	return nil
}

// IsTokenRevoked reports whether the token id was signed out and the
// revocation has not expired yet.
func (theStorage *MemoryStorage) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	expiresAt, found := theStorage.revokedTokens[tokenID]

	return found && expiresAt.After(time.Now()), nil
}

// Ping always succeeds for the in-memory backend.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (theStorage *MemoryStorage) Close() error {
	return nil
}
