package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

// uploadTool is the history label for direct uploads.
const uploadTool = "upload"

// UploadSingle stores one file without transformation. The storage
// semantics match conversions: guests get the deferred-deletion window,
// authenticated callers get a history record.
func (h *Handler) UploadSingle(w http.ResponseWriter, r *http.Request) {
	files, ok := h.formFiles(w, r, false)
	if !ok {
		return
	}
	h.persistAndRespond(w, r, uploadTool, "Upload successful", files, nil)
}

// UploadMultiple stores a batch of files without transformation.
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	files, ok := h.formFiles(w, r, true)
	if !ok {
		return
	}
	h.persistAndRespond(w, r, uploadTool, "Upload successful", files, nil)
}

// DeleteFile removes a stored object by PublicID. The identifier is the
// full path tail because PublicIDs carry their folder prefix. Deleting a
// missing object still succeeds.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "*")
	if publicID == "" {
		respondMessage(w, r, http.StatusBadRequest, "PublicId is required")
		return
	}
	class, ok := parseClass(r.URL.Query().Get("class"))
	if !ok {
		respondMessage(w, r, http.StatusBadRequest, "Invalid resource class")
		return
	}

	auth := AuthFromContext(r.Context())
	err := h.service.DeleteObject(r.Context(), fileforge.DeleteRequest{
		PublicID: publicID,
		Class:    class,
		OwnerID:  auth.Subject,
	})
	if err != nil {
		h.logger.Error("Failed to delete object", "public_id", publicID, "error", err)
		respondMessage(w, r, http.StatusBadGateway, "Failed to delete file")
		return
	}

	respondMessage(w, r, http.StatusOK, "File deleted")
}

// ListFiles returns the caller's conversion history, newest first. Guests
// never reach this handler; requireAuth rejects them with 401.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	auth := AuthFromContext(r.Context())
	records, err := h.service.ListRecords(r.Context(), auth.Subject)
	if err != nil {
		h.logger.Error("Failed to list conversion records", "owner_id", auth.Subject, "error", err)
		respondMessage(w, r, http.StatusInternalServerError, "Failed to list files")
		return
	}
	if records == nil {
		records = []*fileforge.ConversionRecord{}
	}
	render.JSON(w, r, ListFilesResponse{Files: records})
}
