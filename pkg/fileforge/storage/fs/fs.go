// Package fs provides a filesystem-backed object store, mainly for local
// development.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/objectkey"
)

// Backend is a filesystem implementation of the fileforge.ObjectStore
// interface.
type Backend struct {
	baseDir   string
	urlPrefix string
	keys      objectkey.Generator
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for retrieval URLs
}

// New creates a new filesystem object store.
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
		keys:      objectkey.NewShardedGenerator(),
	}, nil
}

// path resolves a public ID inside the base directory. IDs are store-assigned
// but arrive back over HTTP, so traversal outside baseDir must be rejected.
func (b *Backend) path(publicID string) (string, error) {
	p := filepath.Join(b.baseDir, filepath.FromSlash(publicID))
	if !strings.HasPrefix(p, filepath.Clean(b.baseDir)+string(os.PathSeparator)) {
		return "", fileforge.ErrObjectNotFound
	}
	return p, nil
}

func (b *Backend) Upload(ctx context.Context, req fileforge.UploadRequest) (*fileforge.StoredObject, error) {
	key := b.keys.GenerateKey(req.Folder, req.Filename)

	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, &fileforge.StorageError{Op: "upload", Key: key, Class: req.Class,
			Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	if err := os.WriteFile(filePath, req.Data, 0644); err != nil {
		return nil, &fileforge.StorageError{Op: "upload", Key: key, Class: req.Class,
			Err: fmt.Errorf("failed to write file: %w", err)}
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
	}

	retrievalURL := ""
	if b.urlPrefix != "" {
		retrievalURL, _ = b.DownloadURL(ctx, key, req.Class, req.Filename)
	}

	return &fileforge.StoredObject{
		PublicID:      key,
		URL:           retrievalURL,
		ResourceClass: req.Class,
		Folder:        req.Folder,
		Size:          int64(len(req.Data)),
		ContentType:   contentType,
		UploadedAt:    time.Now().UTC(),
	}, nil
}

func (b *Backend) Download(ctx context.Context, publicID string, class fileforge.ResourceClass) (io.ReadCloser, error) {
	filePath, err := b.path(publicID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, fileforge.ErrObjectNotFound
	} else if err != nil {
		return nil, &fileforge.StorageError{Op: "download", Key: publicID, Class: class,
			Err: fmt.Errorf("failed to open file: %w", err)}
	}

	return file, nil
}

func (b *Backend) DownloadURL(ctx context.Context, publicID string, class fileforge.ResourceClass, filename string) (string, error) {
	if b.urlPrefix == "" {
		return "", fileforge.ErrURLNotSupported
	}

	if filename != "" {
		return fmt.Sprintf("%s/%s?filename=%s", b.urlPrefix, publicID, url.QueryEscape(filename)), nil
	}
	return fmt.Sprintf("%s/%s", b.urlPrefix, publicID), nil
}

// Delete removes a file. Missing files are not an error.
func (b *Backend) Delete(ctx context.Context, publicID string, class fileforge.ResourceClass) error {
	filePath, err := b.path(publicID)
	if err != nil {
		return nil
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &fileforge.StorageError{Op: "delete", Key: publicID, Class: class, Err: err}
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

func (b *Backend) DeleteMany(ctx context.Context, publicIDs []string, class fileforge.ResourceClass) error {
	var errs []error
	for _, id := range publicIDs {
		if err := b.Delete(ctx, id, class); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	// Don't remove the base directory
	if dir == filepath.Clean(b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
