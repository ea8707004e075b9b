/*
Package storage puts message attachments into S3-compatible object storage.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrStorage is returned for any failure of the object store. Details are logged, not returned.
var ErrStorage = errors.New("object storage request failed")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// PublicBaseURL is where stored objects can be fetched by browsers.
	PublicBaseURL string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload returns a URL the browser can PUT the file to directly.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// Upload stores body under key.
	Upload(ctx context.Context, key, mimeType string, body io.Reader) error

	// PublicURL returns the browser-facing URL of key.
	PublicURL(key string) string
}

// NewStorageService is the factory function for StorageService.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}

// joinURL joins base and key with exactly one slash.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
