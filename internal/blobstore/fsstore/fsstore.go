// Package fsstore implements the blob store on the local filesystem.
// Each namespace maps to a directory under the base path; thumbnail
// variants land in its "thumbs" subdirectory.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
)

// FSStore stores blobs as plain files under a base directory.
type FSStore struct {
	basePath string
}

// New creates the base directory if needed.
func New(basePath string) (*FSStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &FSStore{basePath: basePath}, nil
}

// blobPath resolves (namespace, key) to a path strictly inside the
// base directory. Keys are generated server-side, the check only
// guards against programming mistakes.
func (s *FSStore) blobPath(namespace, key string) (string, error) {
	full := filepath.Join(s.basePath, namespace, filepath.FromSlash(key))
	if !strings.HasPrefix(full, filepath.Clean(s.basePath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid blob path for key %q", key)
	}

	return full, nil
}

// Put writes the blob, creating the namespace directory on demand.
func (s *FSStore) Put(ctx context.Context, namespace, key string, data []byte) error {
	full, err := s.blobPath(namespace, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create namespace directory: %w", err)
	}

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	return nil
}

// Get reads the blob, mapping a missing file to blobstore.ErrBlobNotFound.
func (s *FSStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	full, err := s.blobPath(namespace, key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, blobstore.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}

	return data, nil
}

// Delete removes the blob file.
func (s *FSStore) Delete(ctx context.Context, namespace, key string) error {
	full, err := s.blobPath(namespace, key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return blobstore.ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}

	return nil
}
