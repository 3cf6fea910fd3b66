// Package album implements the album service: the only component that
// binds an authenticated identity to photo registry and blob store
// operations and sequences them safely.
package album

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/cloudalbum/internal/auth"
	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
	"github.com/patric-chuzhbe/cloudalbum/internal/db/storage"
	"github.com/patric-chuzhbe/cloudalbum/internal/logger"
	"github.com/patric-chuzhbe/cloudalbum/internal/models"
	"github.com/patric-chuzhbe/cloudalbum/internal/photo"
)

// ErrUnsupportedFormat is returned for uploads whose filename extension
// is outside the allow-list.
var ErrUnsupportedFormat = errors.New("not supported file format")

// ErrUnknownFetchMode is returned for fetch modes other than
// "original" and "thumbnail".
var ErrUnknownFetchMode = errors.New("unknown fetch mode")

// allowedExtensions is the upload allow-list. Extensions are compared
// lowercased.
var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"bmp":  true,
	"gif":  true,
	"png":  true,
}

type photoRegistry interface {
	PutPhoto(ctx context.Context, ownerID string, pht *photo.Photo) error
	GetUserPhotos(ctx context.Context, ownerID string) ([]*photo.Photo, error)
	GetPhoto(ctx context.Context, ownerID, photoID string) (*photo.Photo, error)
	DeletePhoto(ctx context.Context, ownerID, photoID string) error
}

type blobRemover interface {
	EnqueueJob(job *models.BlobDeleteJob)
}

// Service orchestrates the photo registry and the blob store.
// Upload stores bytes before registering metadata; delete removes the
// registry entry before the bytes. Neither pair is transactional: a
// failed registration leaves an orphaned blob and a failed blob
// removal leaves dangling bytes, both handed to the background remover.
type Service struct {
	registry    photoRegistry
	blobs       blobstore.BlobStore
	blobRemover blobRemover
}

// New creates the album service.
func New(registry photoRegistry, blobs blobstore.BlobStore, blobRemover blobRemover) *Service {
	return &Service{
		registry:    registry,
		blobs:       blobs,
		blobRemover: blobRemover,
	}
}

// extensionOf extracts the lowercased extension of the client-supplied
// file name. The name itself is never used beyond this.
func extensionOf(filenameHint string) string {
	dot := strings.LastIndex(filenameHint, ".")
	if dot < 0 || dot == len(filenameHint)-1 {
		return ""
	}

	return strings.ToLower(filenameHint[dot+1:])
}

// Upload validates the extension, stores the original blob and its
// thumbnail under a fresh opaque key in the identity's namespace, then
// registers the photo. It returns the new photo id.
func (s *Service) Upload(
	ctx context.Context,
	identity *auth.Identity,
	data []byte,
	filenameHint string,
	meta models.PhotoMeta,
) (string, error) {
	extension := extensionOf(filenameHint)
	if !allowedExtensions[extension] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, extension)
	}

	photoID := uuid.New().String()
	filename := photoID + "." + extension

	if err := s.blobs.Put(ctx, identity.UserID, filename, data); err != nil {
		return "", fmt.Errorf("blob store put failed: %w", err)
	}

	// Thumbnailing is best-effort: a photo without a thumbnail is
	// uploadable, fetching the missing variant later reports not found.
	if thumbnail, err := makeThumbnail(data, extension); err != nil {
		logger.Log.Debugln("thumbnail generation failed", "photo_id", photoID, zap.Error(err))
	} else if err := s.blobs.Put(ctx, identity.UserID, blobstore.ThumbnailKey(filename), thumbnail); err != nil {
		logger.Log.Debugln("thumbnail put failed", "photo_id", photoID, zap.Error(err))
	}

	pht := &photo.Photo{
		ID:        photoID,
		OwnerID:   identity.UserID,
		Filename:  filename,
		FileSize:  int64(len(data)),
		Tags:      meta.Tags,
		Desc:      meta.Desc,
		GeotagLat: meta.GeotagLat,
		GeotagLng: meta.GeotagLng,
		TakenDate: meta.TakenDate,
		Make:      meta.Make,
		Model:     meta.Model,
		Width:     meta.Width,
		Height:    meta.Height,
		City:      meta.City,
		Nation:    meta.Nation,
		Address:   meta.Address,
		CreatedAt: time.Now(),
	}

	if err := s.registry.PutPhoto(ctx, identity.UserID, pht); err != nil {
		// The stored blob is orphaned now; hand it to the remover.
		s.blobRemover.EnqueueJob(&models.BlobDeleteJob{
			Namespace: identity.UserID,
			Keys:      []string{filename, blobstore.ThumbnailKey(filename)},
		})

		return "", fmt.Errorf("photo registration failed: %w", err)
	}

	return photoID, nil
}

// List returns the identity's photo metadata in upload order.
func (s *Service) List(ctx context.Context, identity *auth.Identity) ([]*photo.Photo, error) {
	return s.registry.GetUserPhotos(ctx, identity.UserID)
}

// Fetch resolves a photo to the bytes of the requested variant.
// Metadata without the variant's bytes is treated as a corrupted state
// and reported as not found, never served as the other variant.
func (s *Service) Fetch(
	ctx context.Context,
	identity *auth.Identity,
	photoID string,
	mode models.FetchMode,
) ([]byte, *photo.Photo, error) {
	if mode == "" {
		mode = models.FetchModeOriginal
	}
	if mode != models.FetchModeOriginal && mode != models.FetchModeThumbnail {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFetchMode, mode)
	}

	pht, err := s.registry.GetPhoto(ctx, identity.UserID, photoID)
	if err != nil {
		return nil, nil, err
	}

	key := pht.Filename
	if mode == models.FetchModeThumbnail {
		key = blobstore.ThumbnailKey(key)
	}

	data, err := s.blobs.Get(ctx, identity.UserID, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			logger.Log.Errorln("photo bytes missing for registered metadata",
				"photo_id", photoID, "key", key)

			return nil, nil, storage.ErrPhotoNotFound
		}

		return nil, nil, fmt.Errorf("blob store get failed: %w", err)
	}

	return data, pht, nil
}

// Delete removes the registry entry first, so metadata is never served
// for bytes already scheduled for removal, then hands the blobs to the
// background remover. Repeating a successful delete reports not found.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, photoID string) error {
	pht, err := s.registry.GetPhoto(ctx, identity.UserID, photoID)
	if err != nil {
		return err
	}

	if err := s.registry.DeletePhoto(ctx, identity.UserID, photoID); err != nil {
		return err
	}

	s.blobRemover.EnqueueJob(&models.BlobDeleteJob{
		Namespace: identity.UserID,
		Keys:      []string{pht.Filename, blobstore.ThumbnailKey(pht.Filename)},
	})

	return nil
}
