// Package models contains the request/response DTOs of the HTTP API
// and the response envelope shared by all endpoints.
package models

import "time"

// Envelope is the uniform response body: {code, message, data} on
// success, {code, message} on error. The code mirrors the HTTP status.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SigninResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// PhotoMeta carries the optional descriptive form fields of an upload.
type PhotoMeta struct {
	Tags      string
	Desc      string
	GeotagLat float64
	GeotagLng float64
	TakenDate time.Time
	Make      string
	Model     string
	Width     string
	Height    string
	City      string
	Nation    string
	Address   string
}

type PhotoResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"filesize"`
	Tags      string    `json:"tags,omitempty"`
	Desc      string    `json:"desc,omitempty"`
	GeotagLat float64   `json:"geotag_lat,omitempty"`
	GeotagLng float64   `json:"geotag_lng,omitempty"`
	TakenDate string    `json:"taken_date,omitempty"`
	Make      string    `json:"make,omitempty"`
	Model     string    `json:"model,omitempty"`
	Width     string    `json:"width,omitempty"`
	Height    string    `json:"height,omitempty"`
	City      string    `json:"city,omitempty"`
	Nation    string    `json:"nation,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type UploadResponse struct {
	PhotoID string `json:"photo_id"`
}

// FetchMode selects which blob variant a photo fetch resolves to.
type FetchMode string

const (
	FetchModeOriginal  FetchMode = "original"
	FetchModeThumbnail FetchMode = "thumbnail"
)

// TakenDateLayout is the form/display layout CloudAlbum clients use
// for capture timestamps.
const TakenDateLayout = "2006:01:02 15:04:05"

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeMemory
)

const (
	BlobStoreTypeUnknown = iota
	BlobStoreTypeS3
	BlobStoreTypeFilesystem
	BlobStoreTypeMemory
)

// BlobDeleteJob is a best-effort blob cleanup task handed to the
// background remover after the registry entry is gone.
type BlobDeleteJob struct {
	Namespace string
	Keys      []string
}
