package fileforge

import (
	"context"
	"io"
)

// ObjectStore defines the interface for object storage backends.
//
// Stores assign the public identifier at upload time and must honor it for
// the object's whole lifetime: Download and DownloadURL called with a
// previously returned PublicID succeed even after any earlier retrieval URL
// has expired. Delete and DeleteMany are idempotent; deleting an identifier
// that no longer exists is not an error.
type ObjectStore interface {
	// Upload persists one buffer and returns its stored descriptor.
	Upload(ctx context.Context, req UploadRequest) (*StoredObject, error)

	// Download streams the object's bytes. The store derives access freshly
	// per call; it never relies on a previously issued URL.
	Download(ctx context.Context, publicID string, class ResourceClass) (io.ReadCloser, error)

	// DownloadURL returns a retrieval URL for the object. Raw objects get a
	// signed, time-bounded URL; image objects may get unsigned public
	// delivery. A non-empty filename requests attachment disposition where
	// the backend supports it.
	DownloadURL(ctx context.Context, publicID string, class ResourceClass, filename string) (string, error)

	// Delete removes one object. Missing objects are not an error.
	Delete(ctx context.Context, publicID string, class ResourceClass) error

	// DeleteMany removes a batch of objects of one class, aggregating
	// per-key failures into the returned error. Missing objects are skipped.
	DeleteMany(ctx context.Context, publicIDs []string, class ResourceClass) error
}

// Repository defines the interface for conversion history persistence.
type Repository interface {
	// SaveRecord stores one history row.
	SaveRecord(ctx context.Context, record *ConversionRecord) error

	// ListRecords returns an owner's rows, newest first.
	ListRecords(ctx context.Context, ownerID string) ([]*ConversionRecord, error)

	// DeleteRecord removes the row for one of the owner's objects. Missing
	// rows are not an error.
	DeleteRecord(ctx context.Context, ownerID, publicID string) error
}
