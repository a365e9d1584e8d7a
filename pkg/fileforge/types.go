package fileforge

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResourceClass is the storage-backend category controlling how an object is
// signed and served.
type ResourceClass string

// Resource class constants (typed).
const (
	// ResourceImage objects may be served over unsigned public delivery.
	ResourceImage ResourceClass = "image"
	// ResourceRaw objects are generic binaries and require signed delivery.
	ResourceRaw ResourceClass = "raw"
)

// Valid reports whether c is one of the known resource classes.
func (c ResourceClass) Valid() bool {
	return c == ResourceImage || c == ResourceRaw
}

// ClassifyMime maps a MIME hint to a resource class. Anything outside
// image/* (including an empty hint) is treated as a generic binary.
func ClassifyMime(mimeType string) ResourceClass {
	if strings.HasPrefix(mimeType, "image/") {
		return ResourceImage
	}
	return ResourceRaw
}

// Storage folder constants. The folder is a lifecycle hint for the storage
// backend, not a correctness requirement.
const (
	// FolderOutputs holds outputs of authenticated requests (kept until
	// explicitly deleted).
	FolderOutputs = "outputs"
	// FolderTemp holds guest outputs (reaped after the grace window).
	FolderTemp = "temp"
)

// FolderFor selects the storage folder for a request's outputs.
func FolderFor(authenticated bool) string {
	if authenticated {
		return FolderOutputs
	}
	return FolderTemp
}

// ProcessedFile is the ephemeral output of a transformation (and the shape of
// an uploaded input file). It is consumed exactly once when persisted.
type ProcessedFile struct {
	Data     []byte
	Filename string
	// MimeType is an optional content-type hint. It only selects image vs
	// generic binary storage treatment.
	MimeType string
}

// Class returns the resource class implied by the file's MIME hint.
func (f ProcessedFile) Class() ResourceClass {
	return ClassifyMime(f.MimeType)
}

// StoredObject describes an object persisted in an ObjectStore. Its lifecycle
// is independent of the request that created it.
type StoredObject struct {
	// PublicID is the stable identifier assigned by the store. It is safe to
	// re-derive a retrieval URL or byte stream from it at any later time.
	PublicID string `json:"public_id"`
	// URL is the retrieval URL at upload time. For raw objects it is signed
	// and time-bounded and may expire before consumption; callers must not
	// assume it is the final fetch mechanism.
	URL           string        `json:"url"`
	ResourceClass ResourceClass `json:"resource_class"`
	Folder        string        `json:"folder"`
	Size          int64         `json:"size"`
	ContentType   string        `json:"content_type,omitempty"`
	UploadedAt    time.Time     `json:"uploaded_at"`
}

// FileRecord is the client-facing descriptor of one persisted output.
type FileRecord struct {
	PublicID     string `json:"publicId"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
}

// ConversionResult is the payload built for one persist request. Exactly one
// of File or Files is set: File for a single input, Files (in input order)
// for two or more. Consumers must handle both shapes.
type ConversionResult struct {
	File  *FileRecord  `json:"file,omitempty"`
	Files []FileRecord `json:"files,omitempty"`
}

// Records returns the result's records regardless of shape.
func (r *ConversionResult) Records() []FileRecord {
	if r == nil {
		return nil
	}
	if r.File != nil {
		return []FileRecord{*r.File}
	}
	return r.Files
}

// ConversionRecord is a persisted history row for an authenticated
// conversion output.
type ConversionRecord struct {
	ID            uuid.UUID     `json:"id"`
	OwnerID       string        `json:"owner_id"`
	Tool          string        `json:"tool,omitempty"`
	PublicID      string        `json:"public_id"`
	Filename      string        `json:"filename"`
	Size          int64         `json:"size"`
	ResourceClass ResourceClass `json:"resource_class"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ReapItem identifies one stored object scheduled for deferred deletion.
type ReapItem struct {
	PublicID string
	Class    ResourceClass
}
