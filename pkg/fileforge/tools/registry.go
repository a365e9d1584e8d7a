// Package tools holds the declarative tool table behind the conversion
// endpoints. Every tool is one row: a slug and a transformation function.
// The HTTP layer serves all tools through a single parameterized handler;
// adding a tool means adding a row here, never a new handler.
package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

// ErrInvalidOptions marks a transformation failure caused by bad caller
// options rather than the transformation itself. Handlers map it to an input
// error.
var ErrInvalidOptions = errors.New("invalid tool options")

// Request carries a tool invocation's inputs.
type Request struct {
	Files   []fileforge.ProcessedFile
	Options url.Values
}

// TransformFunc turns input files into output files. All real work is
// outsourced to libraries; failures fail the whole request.
type TransformFunc func(ctx context.Context, req Request) ([]fileforge.ProcessedFile, error)

// Tool is one row of the tool table.
type Tool struct {
	Slug        string
	Description string
	// MultiFile tools read the multipart "files" field; single-file tools
	// read "file".
	MultiFile bool
	Transform TransformFunc
}

// Registry resolves tool slugs. Built once at startup, read-only afterwards.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tool table.
func NewRegistry(table ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(table))}
	for _, t := range table {
		if t.Slug == "" {
			return nil, errors.New("tool with empty slug")
		}
		if t.Transform == nil {
			return nil, fmt.Errorf("tool %q has no transform", t.Slug)
		}
		if _, exists := r.tools[t.Slug]; exists {
			return nil, fmt.Errorf("duplicate tool slug %q", t.Slug)
		}
		r.tools[t.Slug] = t
	}
	return r, nil
}

// Get returns the tool registered under slug.
func (r *Registry) Get(slug string) (Tool, bool) {
	t, ok := r.tools[slug]
	return t, ok
}

// Slugs returns all registered slugs, sorted.
func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.tools))
	for slug := range r.tools {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}
