// Package storage declares the persistence contract shared by the
// PostgreSQL and in-memory backends: the user directory, the
// owner-scoped photo registry and the revoked token set.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
	"github.com/patric-chuzhbe/cloudalbum/internal/user"
)

var (
	// ErrUserNotFound is returned when no user matches the requested
	// id or email.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned by CreateUser when the email
	// is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrPhotoNotFound is returned when a photo is absent or belongs
	// to a different owner. The two cases are indistinguishable on
	// purpose so existence does not leak across owners.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrPhotoConflict is returned when a photo id is already taken by
	// a different owner. Ids are UUIDs, so hitting this indicates a
	// programming error.
	ErrPhotoConflict = errors.New("photo id already registered to another owner")
)

// UserKeeper is the user directory.
type UserKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUsers(ctx context.Context) ([]*user.User, error)
}

// PhotoRegistry is the authoritative (owner id, photo id) -> metadata
// mapping. Every query is owner-scoped.
type PhotoRegistry interface {
	PutPhoto(ctx context.Context, ownerID string, pht *photo.Photo) error
	GetUserPhotos(ctx context.Context, ownerID string) ([]*photo.Photo, error)
	GetPhoto(ctx context.Context, ownerID, photoID string) (*photo.Photo, error)
	DeletePhoto(ctx context.Context, ownerID, photoID string) error
}

// TokenRevoker keeps the set of signed-out token ids.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Storage is the full persistence surface the application wires up.
type Storage interface {
	UserKeeper
	PhotoRegistry
	TokenRevoker
	Pinger
	Close() error
}
