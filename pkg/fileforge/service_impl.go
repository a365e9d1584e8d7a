package fileforge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// service implements the Service interface
type service struct {
	store  ObjectStore
	repo   Repository
	reaper *Reaper
	logger *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithObjectStore sets the object store for the service
func WithObjectStore(store ObjectStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithRepository sets the conversion history repository
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithReaper sets the deferred deletion reaper
func WithReaper(reaper *Reaper) Option {
	return func(s *service) {
		s.reaper = reaper
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("object store is required")
	}

	return s, nil
}

func (s *service) PersistResults(ctx context.Context, req PersistRequest) (*ConversionResult, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}

	folder := FolderFor(req.Authenticated)

	// All uploads for one request run concurrently and are awaited jointly.
	// In-flight siblings are not cancelled when one fails; they run to
	// completion and the batch is discarded afterwards.
	stored := make([]*StoredObject, len(req.Files))
	var g errgroup.Group
	for i, pf := range req.Files {
		g.Go(func() error {
			obj, err := s.store.Upload(ctx, UploadRequest{
				Data:        pf.Data,
				Folder:      folder,
				Filename:    pf.Filename,
				ContentType: pf.MimeType,
				Class:       pf.Class(),
			})
			if err != nil {
				return &PersistError{Index: i, Filename: pf.Filename, Err: err}
			}
			stored[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discardUploaded(stored)
		return nil, err
	}

	records := make([]FileRecord, len(stored))
	for i, obj := range stored {
		records[i] = FileRecord{
			PublicID:     obj.PublicID,
			OriginalName: req.Files[i].Filename,
			URL:          obj.URL,
			Size:         obj.Size,
		}
	}

	if req.Authenticated {
		s.saveRecords(ctx, req, stored)
	} else {
		s.scheduleReap(req, stored)
	}

	if len(records) == 1 {
		return &ConversionResult{File: &records[0]}, nil
	}
	return &ConversionResult{Files: records}, nil
}

// discardUploaded removes the objects a failed batch managed to upload.
// Best-effort and asynchronous: the request has already failed and storage
// cleanup must not delay or alter its response.
func (s *service) discardUploaded(stored []*StoredObject) {
	byClass := make(map[ResourceClass][]string)
	for _, obj := range stored {
		if obj == nil {
			continue
		}
		byClass[obj.ResourceClass] = append(byClass[obj.ResourceClass], obj.PublicID)
	}
	if len(byClass) == 0 {
		return
	}

	go func() {
		ctx := context.Background()
		for class, ids := range byClass {
			if err := s.store.DeleteMany(ctx, ids, class); err != nil {
				s.logger.Error("Failed to discard orphaned uploads",
					"class", string(class), "count", len(ids), "error", err)
			}
		}
	}()
}

func (s *service) saveRecords(ctx context.Context, req PersistRequest, stored []*StoredObject) {
	if s.repo == nil || req.OwnerID == "" {
		return
	}

	now := time.Now().UTC()
	for i, obj := range stored {
		record := &ConversionRecord{
			ID:            uuid.New(),
			OwnerID:       req.OwnerID,
			Tool:          req.Tool,
			PublicID:      obj.PublicID,
			Filename:      req.Files[i].Filename,
			Size:          obj.Size,
			ResourceClass: obj.ResourceClass,
			CreatedAt:     now,
		}
		// The objects are already durable; record-keeping failures must not
		// fail the request.
		if err := s.repo.SaveRecord(ctx, record); err != nil {
			s.logger.Error("Failed to save conversion record",
				"public_id", obj.PublicID, "owner_id", req.OwnerID, "error", err)
		}
	}
}

func (s *service) scheduleReap(req PersistRequest, stored []*StoredObject) {
	if s.reaper == nil {
		s.logger.Warn("No reaper configured, guest objects will not be reclaimed")
		return
	}

	items := make([]ReapItem, 0, len(stored)+len(req.ConsumedInputs))
	for _, obj := range stored {
		items = append(items, ReapItem{PublicID: obj.PublicID, Class: obj.ResourceClass})
	}
	items = append(items, req.ConsumedInputs...)
	s.reaper.Schedule(items)
}

func (s *service) OpenObject(ctx context.Context, publicID string, class ResourceClass) (io.ReadCloser, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceClass, class)
	}
	return s.store.Download(ctx, publicID, class)
}

func (s *service) ObjectURL(ctx context.Context, publicID string, class ResourceClass, filename string) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceClass, class)
	}
	return s.store.DownloadURL(ctx, publicID, class, filename)
}

func (s *service) DeleteObject(ctx context.Context, req DeleteRequest) error {
	if !req.Class.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResourceClass, req.Class)
	}

	if err := s.store.Delete(ctx, req.PublicID, req.Class); err != nil {
		return err
	}

	if s.repo != nil && req.OwnerID != "" {
		if err := s.repo.DeleteRecord(ctx, req.OwnerID, req.PublicID); err != nil {
			s.logger.Error("Failed to delete conversion record",
				"public_id", req.PublicID, "owner_id", req.OwnerID, "error", err)
		}
	}
	return nil
}

func (s *service) ListRecords(ctx context.Context, ownerID string) ([]*ConversionRecord, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}
	return s.repo.ListRecords(ctx, ownerID)
}
