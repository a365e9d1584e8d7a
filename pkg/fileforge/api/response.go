package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

// MessageResponse is the uniform error body: every non-2xx response
// carries a single human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ResultResponse is the success body for conversions and uploads. Exactly
// one of File or Files is set, mirroring the input arity.
type ResultResponse struct {
	Message string                 `json:"message"`
	File    *fileforge.FileRecord  `json:"file,omitempty"`
	Files   []fileforge.FileRecord `json:"files,omitempty"`
}

// ListFilesResponse is the body for the conversion history endpoint.
type ListFilesResponse struct {
	Files []*fileforge.ConversionRecord `json:"files"`
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, MessageResponse{Message: message})
}

func respondResult(w http.ResponseWriter, r *http.Request, message string, result *fileforge.ConversionResult) {
	render.JSON(w, r, ResultResponse{
		Message: message,
		File:    result.File,
		Files:   result.Files,
	})
}
