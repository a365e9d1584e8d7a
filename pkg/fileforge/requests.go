package fileforge

// Request DTOs

// UploadRequest contains parameters for storing one buffer.
type UploadRequest struct {
	Data        []byte
	Folder      string
	Filename    string
	ContentType string
	Class       ResourceClass
}

// PersistRequest contains parameters for persisting a transformation's
// outputs.
//
// ConsumedInputs lists upstream stored objects the transformation consumed;
// for guest requests they are reaped together with the outputs.
type PersistRequest struct {
	Files          []ProcessedFile
	Authenticated  bool
	OwnerID        string
	Tool           string
	ConsumedInputs []ReapItem
}
