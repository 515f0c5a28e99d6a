// Package storage archives inbound lead media, mostly business card
// photos and voice notes, in S3-compatible object storage. Objects are
// kept opaque; downstream extraction happens outside this service.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL carries a time-limited link to a stored media object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MediaStore is the object storage port for lead media.
type MediaStore interface {
	// StoreLeadMedia uploads one inbound media object under the lead's
	// folder and returns the file key recorded on the message row.
	StoreLeadMedia(ctx context.Context, leadID, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// DownloadURL creates a presigned link for reviewing stored media.
	DownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error)

	// EnsureBucketExists creates the media bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadMedia() string
	IsMinIOEnabled() bool
}
