// Package blobstore declares the contract for durable photo byte
// storage. Blobs are addressed by (namespace, key); the namespace is
// the owner's user id, so keys of different owners never collide.
// Thumbnail variants live under the "thumbs/" prefix of the namespace.
package blobstore

import (
	"context"
	"errors"
)

// ThumbnailPrefix is prepended to a key to address the thumbnail
// variant of the blob.
const ThumbnailPrefix = "thumbs/"

// ErrBlobNotFound is returned by Get and Delete when a blob is absent.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores raw image bytes independently of any metadata.
type BlobStore interface {
	Put(ctx context.Context, namespace, key string, data []byte) error
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Delete(ctx context.Context, namespace, key string) error
}

// ThumbnailKey addresses the thumbnail variant of key.
func ThumbnailKey(key string) string {
	return ThumbnailPrefix + key
}
