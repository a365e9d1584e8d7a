// Package api exposes the conversion, upload, and download endpoints over
// chi. Handlers parse and validate the HTTP surface and delegate lifecycle
// decisions to the fileforge service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/tools"
)

// Handler handles the conversion and upload API endpoints.
type Handler struct {
	service   fileforge.Service
	tools     *tools.Registry
	tokenAuth *jwtauth.JWTAuth
	client    *http.Client
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTokenAuth enables bearer-token verification. Without it every
// request runs as guest.
func WithTokenAuth(ta *jwtauth.JWTAuth) Option {
	return func(h *Handler) { h.tokenAuth = ta }
}

// WithHTTPClient sets the client used for URL-mode download proxying.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) { h.client = c }
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates the API handler around a service and a tool registry.
func NewHandler(service fileforge.Service, registry *tools.Registry, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		tools:   registry,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for the conversion and upload endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.tokenAuth != nil {
		r.Use(jwtauth.Verifier(h.tokenAuth))
	}
	r.Use(h.authState)

	r.Route("/convert", func(r chi.Router) {
		r.Get("/download", h.Download)
		r.Post("/{tool}", h.Convert)
	})

	r.Route("/upload", func(r chi.Router) {
		r.Post("/single", h.UploadSingle)
		r.Post("/multiple", h.UploadMultiple)
		// PublicIDs embed the folder prefix, so the identifier spans
		// path segments.
		r.Delete("/*", h.DeleteFile)
	})

	r.With(h.requireAuth).Get("/files", h.ListFiles)

	return r
}

func parseClass(raw string) (fileforge.ResourceClass, bool) {
	if raw == "" {
		return fileforge.ResourceRaw, true
	}
	class := fileforge.ResourceClass(raw)
	return class, class.Valid()
}
