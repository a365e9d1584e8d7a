package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/tools"
)

func noopTransform(ctx context.Context, req tools.Request) ([]fileforge.ProcessedFile, error) {
	return req.Files, nil
}

func TestNewRegistry(t *testing.T) {
	registry, err := tools.NewRegistry(
		tools.Tool{Slug: "a", Transform: noopTransform},
		tools.Tool{Slug: "b", Transform: noopTransform, MultiFile: true},
	)
	require.NoError(t, err)

	tool, ok := registry.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", tool.Slug)
	assert.False(t, tool.MultiFile)

	_, ok = registry.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, registry.Slugs())
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := tools.NewRegistry(
		tools.Tool{Slug: "dup", Transform: noopTransform},
		tools.Tool{Slug: "dup", Transform: noopTransform},
	)
	assert.Error(t, err)
}

func TestNewRegistryRejectsInvalidTools(t *testing.T) {
	_, err := tools.NewRegistry(tools.Tool{Slug: "", Transform: noopTransform})
	assert.Error(t, err)

	_, err = tools.NewRegistry(tools.Tool{Slug: "no-transform"})
	assert.Error(t, err)
}

func TestBuiltinsRegister(t *testing.T) {
	registry, err := tools.NewRegistry(tools.Builtins()...)
	require.NoError(t, err)

	for _, slug := range []string{"image-to-jpeg", "image-to-png", "image-resize", "zip-bundle", "merge-text"} {
		_, ok := registry.Get(slug)
		assert.True(t, ok, "builtin %s should be registered", slug)
	}
}
