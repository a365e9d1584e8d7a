// Package memory provides an in-memory conversion history repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

// Repository implements fileforge.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	records map[string][]*fileforge.ConversionRecord // owner_id -> records
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		records: make(map[string][]*fileforge.ConversionRecord),
	}
}

func (r *Repository) SaveRecord(ctx context.Context, record *fileforge.ConversionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	recordCopy := *record
	r.records[record.OwnerID] = append(r.records[record.OwnerID], &recordCopy)

	return nil
}

func (r *Repository) ListRecords(ctx context.Context, ownerID string) ([]*fileforge.ConversionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.records[ownerID]
	out := make([]*fileforge.ConversionRecord, 0, len(rows))
	for _, rec := range rows {
		recordCopy := *rec
		out = append(out, &recordCopy)
	}

	// Newest first
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *Repository) DeleteRecord(ctx context.Context, ownerID, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.records[ownerID]
	kept := rows[:0]
	for _, rec := range rows {
		if rec.PublicID != publicID {
			kept = append(kept, rec)
		}
	}
	r.records[ownerID] = kept

	return nil
}
