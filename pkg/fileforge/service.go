package fileforge

import (
	"context"
	"io"
)

// Service defines the main interface for the conversion result lifecycle.
type Service interface {
	// PersistResults uploads every file in the request, builds the
	// client-facing result, and for guest requests schedules deferred
	// deletion of the created objects plus any declared consumed inputs.
	// Uploads run concurrently and are awaited jointly; any single failure
	// fails the whole request and no partial result is returned.
	PersistResults(ctx context.Context, req PersistRequest) (*ConversionResult, error)

	// OpenObject streams a stored object's bytes, deriving access freshly
	// from the identifier.
	OpenObject(ctx context.Context, publicID string, class ResourceClass) (io.ReadCloser, error)

	// ObjectURL returns a fresh retrieval URL for a stored object.
	ObjectURL(ctx context.Context, publicID string, class ResourceClass, filename string) (string, error)

	// DeleteObject removes a stored object. Deleting a missing object is
	// not an error.
	DeleteObject(ctx context.Context, req DeleteRequest) error

	// ListRecords returns an owner's conversion history, newest first.
	ListRecords(ctx context.Context, ownerID string) ([]*ConversionRecord, error)
}

// DeleteRequest contains parameters for an explicit object deletion.
type DeleteRequest struct {
	PublicID string
	Class    ResourceClass
	// OwnerID, when set, also removes the owner's matching history row.
	OwnerID string
}
