package fileforge

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNoFiles indicates a persist request carried no files
	ErrNoFiles = errors.New("no files provided")

	// ErrObjectNotFound indicates an object was not found in storage
	ErrObjectNotFound = errors.New("object not found")

	// ErrUploadFailed indicates an upload operation failed
	ErrUploadFailed = errors.New("upload failed")

	// ErrDownloadFailed indicates a download operation failed
	ErrDownloadFailed = errors.New("download failed")

	// ErrInvalidResourceClass indicates an unknown resource class value
	ErrInvalidResourceClass = errors.New("invalid resource class")

	// ErrURLNotSupported indicates the store cannot produce a retrieval URL
	ErrURLNotSupported = errors.New("retrieval URL not supported by storage backend")

	// ErrRepositoryNotConfigured indicates a history operation was invoked
	// without a repository
	ErrRepositoryNotConfigured = errors.New("repository not configured")
)

// StorageError represents an error from an object store operation
type StorageError struct {
	Op    string
	Key   string
	Class ResourceClass
	Err   error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistError represents a failed persist request. Index is the position of
// the file whose upload failed.
type PersistError struct {
	Index    int
	Filename string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed for file %d (%s): %v", e.Index, e.Filename, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
