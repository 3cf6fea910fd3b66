package s3store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
)

var _ blobstore.BlobStore = (*S3Store)(nil)

func TestObjectKeyLayout(t *testing.T) {
	store := &S3Store{bucket: "photos"}

	assert.Equal(t, "user-1/p1.png", store.objectKey("user-1", "p1.png"))
	assert.Equal(
		t,
		"user-1/thumbs/p1.png",
		store.objectKey("user-1", blobstore.ThumbnailKey("p1.png")),
	)
}
