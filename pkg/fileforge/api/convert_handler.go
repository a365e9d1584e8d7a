package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/tools"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files. The overall request size is capped by
// the size-limit middleware.
const maxMultipartMemory = 32 << 20

// Convert runs the named tool over the uploaded files and persists the
// outputs. Authenticated callers keep their results; guest outputs are
// scheduled for deferred deletion together with any declared consumed
// inputs.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "tool")
	tool, ok := h.tools.Get(slug)
	if !ok {
		respondMessage(w, r, http.StatusNotFound, "Unknown conversion tool")
		return
	}

	files, ok := h.formFiles(w, r, tool.MultiFile)
	if !ok {
		return
	}

	outputs, err := tool.Transform(r.Context(), tools.Request{Files: files, Options: formOptions(r)})
	if err != nil {
		if errors.Is(err, tools.ErrInvalidOptions) {
			respondMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Transformation failed", "tool", slug, "error", err)
		respondMessage(w, r, http.StatusInternalServerError, "Conversion failed")
		return
	}

	h.persistAndRespond(w, r, slug, "Conversion successful", outputs, consumedInputs(r))
}

// Download streams a file back with a save-as disposition. PublicID mode
// re-derives access from the store on every call; URL mode performs a
// single upstream GET with the shared client. No retries in either mode.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filename := q.Get("filename")
	if filename == "" {
		respondMessage(w, r, http.StatusBadRequest, "Filename is required")
		return
	}

	switch {
	case q.Get("publicId") != "":
		class, ok := parseClass(q.Get("class"))
		if !ok {
			respondMessage(w, r, http.StatusBadRequest, "Invalid resource class")
			return
		}
		h.streamStored(w, r, q.Get("publicId"), class, filename)
	case q.Get("url") != "":
		h.streamRemote(w, r, q.Get("url"), filename)
	default:
		respondMessage(w, r, http.StatusBadRequest, "Either publicId or url is required")
	}
}

func (h *Handler) streamStored(w http.ResponseWriter, r *http.Request, publicID string, class fileforge.ResourceClass, filename string) {
	body, err := h.service.OpenObject(r.Context(), publicID, class)
	if err != nil {
		if errors.Is(err, fileforge.ErrObjectNotFound) {
			respondMessage(w, r, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("Failed to open stored object", "public_id", publicID, "error", err)
		respondMessage(w, r, http.StatusBadGateway, "Failed to fetch file from storage")
		return
	}
	defer body.Close()

	writeAttachmentHeaders(w, filename, "", -1)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("Download stream aborted", "public_id", publicID, "error", err)
	}
}

func (h *Handler) streamRemote(w http.ResponseWriter, r *http.Request, rawURL, filename string) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		respondMessage(w, r, http.StatusBadRequest, "Invalid url")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		respondMessage(w, r, http.StatusBadRequest, "Invalid url")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("Upstream fetch failed", "url", rawURL, "error", err)
		respondMessage(w, r, http.StatusBadGateway, "Failed to fetch file")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respondMessage(w, r, http.StatusBadGateway, fmt.Sprintf("Upstream returned status %d", resp.StatusCode))
		return
	}

	writeAttachmentHeaders(w, filename, resp.Header.Get("Content-Type"), resp.ContentLength)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("Download stream aborted", "url", rawURL, "error", err)
	}
}

func writeAttachmentHeaders(w http.ResponseWriter, filename, contentType string, length int64) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if length >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}
}

// formFiles parses the multipart form and reads the tool's input field
// ("file" for single-input tools, "files" otherwise) fully into memory.
// It writes the error response itself and reports ok=false on failure.
func (h *Handler) formFiles(w http.ResponseWriter, r *http.Request, multi bool) ([]fileforge.ProcessedFile, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondMessage(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		respondMessage(w, r, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}

	field := "file"
	if multi {
		field = "files"
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		msg := "No file uploaded"
		if multi {
			msg = "No files uploaded"
		}
		respondMessage(w, r, http.StatusBadRequest, msg)
		return nil, false
	}
	if !multi && len(headers) > 1 {
		respondMessage(w, r, http.StatusBadRequest, "Only one file may be uploaded")
		return nil, false
	}

	files := make([]fileforge.ProcessedFile, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			h.logger.Error("Failed to open multipart part", "filename", header.Filename, "error", err)
			respondMessage(w, r, http.StatusBadRequest, "Unreadable upload")
			return nil, false
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			h.logger.Error("Failed to read multipart part", "filename", header.Filename, "error", err)
			respondMessage(w, r, http.StatusBadRequest, "Unreadable upload")
			return nil, false
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		files = append(files, fileforge.ProcessedFile{
			Data:     data,
			Filename: header.Filename,
			MimeType: mimeType,
		})
	}
	return files, true
}

// formOptions exposes query and form values to the tool. Form values win
// on key collisions.
func formOptions(r *http.Request) url.Values {
	opts := url.Values{}
	for k, v := range r.URL.Query() {
		opts[k] = v
	}
	if r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			opts[k] = v
		}
	}
	return opts
}

// consumedInputs collects repeated inputId form fields. Deletion is keyed
// by identifier alone; the class only routes the batch.
func consumedInputs(r *http.Request) []fileforge.ReapItem {
	if r.MultipartForm == nil {
		return nil
	}
	var items []fileforge.ReapItem
	for _, id := range r.MultipartForm.Value["inputId"] {
		if id == "" {
			continue
		}
		items = append(items, fileforge.ReapItem{PublicID: id, Class: fileforge.ResourceRaw})
	}
	return items
}

// persistAndRespond stores the outputs through the service and renders the
// arity-shaped result body.
func (h *Handler) persistAndRespond(w http.ResponseWriter, r *http.Request, tool, message string, files []fileforge.ProcessedFile, consumed []fileforge.ReapItem) {
	auth := AuthFromContext(r.Context())
	result, err := h.service.PersistResults(r.Context(), fileforge.PersistRequest{
		Files:          files,
		Authenticated:  auth.Authenticated,
		OwnerID:        auth.Subject,
		Tool:           tool,
		ConsumedInputs: consumed,
	})
	if err != nil {
		h.logger.Error("Failed to persist results", "tool", tool, "error", err)
		respondMessage(w, r, http.StatusInternalServerError, "Failed to store files")
		return
	}
	respondResult(w, r, message, result)
}
