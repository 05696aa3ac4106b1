// Package storage provides object storage sinks for built partitions.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts the destination partitions and sidecars upload
// to. Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Upload uploads a local file to objectPath.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Download fetches objectPath into localPath.
	Download(ctx context.Context, objectPath, localPath string) error

	// Exists reports whether an object exists.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
