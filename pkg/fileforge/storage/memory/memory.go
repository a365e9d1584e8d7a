// Package memory provides an in-memory object store for tests and local
// development.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/objectkey"
)

type entry struct {
	data        []byte
	contentType string
	class       fileforge.ResourceClass
}

// Backend is an in-memory implementation of the fileforge.ObjectStore
// interface.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]entry
	keys    objectkey.Generator
}

// New creates a new in-memory object store.
func New() *Backend {
	return &Backend{
		objects: make(map[string]entry),
		keys:    objectkey.NewRecommendedGenerator(),
	}
}

func (b *Backend) Upload(ctx context.Context, req fileforge.UploadRequest) (*fileforge.StoredObject, error) {
	key := b.keys.GenerateKey(req.Folder, req.Filename)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data := make([]byte, len(req.Data))
	copy(data, req.Data)

	b.mu.Lock()
	b.objects[key] = entry{data: data, contentType: contentType, class: req.Class}
	b.mu.Unlock()

	return &fileforge.StoredObject{
		PublicID:      key,
		URL:           "memory://" + key,
		ResourceClass: req.Class,
		Folder:        req.Folder,
		Size:          int64(len(data)),
		ContentType:   contentType,
		UploadedAt:    time.Now().UTC(),
	}, nil
}

func (b *Backend) Download(ctx context.Context, publicID string, class fileforge.ResourceClass) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, exists := b.objects[publicID]
	if !exists {
		return nil, fileforge.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(e.data)), nil
}

func (b *Backend) DownloadURL(ctx context.Context, publicID string, class fileforge.ResourceClass, filename string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[publicID]; !exists {
		return "", fileforge.ErrObjectNotFound
	}

	return "memory://" + publicID, nil
}

// Delete removes an object. Missing objects are not an error.
func (b *Backend) Delete(ctx context.Context, publicID string, class fileforge.ResourceClass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, publicID)
	return nil
}

func (b *Backend) DeleteMany(ctx context.Context, publicIDs []string, class fileforge.ResourceClass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range publicIDs {
		delete(b.objects, id)
	}
	return nil
}

// Exists reports whether an object is currently stored. Test helper.
func (b *Backend) Exists(publicID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[publicID]
	return exists
}

// Len returns the number of stored objects. Test helper.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.objects)
}
