// Package photo defines the photo metadata model kept in the registry.
package photo

import "time"

// Photo is the metadata record for one uploaded image.
// The record is keyed by (OwnerID, ID); every registry query is scoped
// to the owner, so a photo is never visible to another user.
type Photo struct {
	// ID is a UUID generated at upload time, unique across all owners.
	ID string

	// OwnerID is the ID of the user who uploaded the photo.
	OwnerID string

	// Filename is the opaque stored key ("<uuid>.<ext>").
	// It is generated server-side and never derived from the uploaded
	// file name, so it cannot carry path segments.
	Filename string

	// FileSize is the size of the original blob in bytes.
	FileSize int64

	Tags string
	Desc string

	GeotagLat float64
	GeotagLng float64

	TakenDate time.Time

	Make   string
	Model  string
	Width  string
	Height string

	City    string
	Nation  string
	Address string

	CreatedAt time.Time
}
