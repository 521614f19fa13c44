package storage

import (
	"context"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations. Meal
// photos and body composition report scans are uploaded by clients straight
// to the bucket through presigned URLs; the analysis flow then fetches the
// object bytes server-side.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT
	// requests for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GetObject downloads an object's bytes. Used to feed uploaded scan
	// images to the analysis pipeline.
	GetObject(ctx context.Context, objectKey string) ([]byte, string, error)

	// DeleteObject removes an object from the storage provider. Scan images
	// are deleted once analyzed.
	DeleteObject(ctx context.Context, objectKey string) error
}
