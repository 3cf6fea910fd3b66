// Package memstore provides an in-memory blob store for tests and
// local development.
package memstore

import (
	"context"
	"sync"

	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
)

// MemStore keeps blobs in a map keyed by "<namespace>/<key>".
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{blobs: map[string][]byte{}}
}

func blobKey(namespace, key string) string {
	return namespace + "/" + key
}

// Put stores a copy of the data.
func (s *MemStore) Put(ctx context.Context, namespace, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[blobKey(namespace, key)] = copied

	return nil
}

// Get returns a copy of the stored data or blobstore.ErrBlobNotFound.
func (s *MemStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, found := s.blobs[blobKey(namespace, key)]
	if !found {
		return nil, blobstore.ErrBlobNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)

	return copied, nil
}

// Delete removes the blob or reports blobstore.ErrBlobNotFound.
func (s *MemStore) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullKey := blobKey(namespace, key)
	if _, found := s.blobs[fullKey]; !found {
		return blobstore.ErrBlobNotFound
	}

	delete(s.blobs, fullKey)

	return nil
}

// Len reports the number of stored blobs, used by tests to assert
// that rejected uploads wrote nothing.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.blobs)
}
