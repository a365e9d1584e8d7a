package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/fileforge/pkg/fileforge"
	repomemory "github.com/fileforge/fileforge/pkg/fileforge/repo/memory"
)

func record(owner, publicID string, createdAt time.Time) *fileforge.ConversionRecord {
	return &fileforge.ConversionRecord{
		ID:            uuid.New(),
		OwnerID:       owner,
		Tool:          "image-to-png",
		PublicID:      publicID,
		Filename:      "out.png",
		Size:          42,
		ResourceClass: fileforge.ResourceImage,
		CreatedAt:     createdAt,
	}
}

func TestRepositoryListNewestFirst(t *testing.T) {
	repo := repomemory.New()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.SaveRecord(ctx, record("u1", "outputs/old.png", base.Add(-time.Hour))))
	require.NoError(t, repo.SaveRecord(ctx, record("u1", "outputs/new.png", base)))
	require.NoError(t, repo.SaveRecord(ctx, record("u2", "outputs/other.png", base)))

	records, err := repo.ListRecords(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "outputs/new.png", records[0].PublicID)
	assert.Equal(t, "outputs/old.png", records[1].PublicID)
}

func TestRepositoryListUnknownOwner(t *testing.T) {
	repo := repomemory.New()

	records, err := repo.ListRecords(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRepositoryDeleteRecord(t *testing.T) {
	repo := repomemory.New()
	ctx := context.Background()

	require.NoError(t, repo.SaveRecord(ctx, record("u1", "outputs/a.png", time.Now())))
	require.NoError(t, repo.DeleteRecord(ctx, "u1", "outputs/a.png"))

	records, err := repo.ListRecords(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, records)

	// Deleting a missing row is not an error.
	require.NoError(t, repo.DeleteRecord(ctx, "u1", "outputs/a.png"))
	require.NoError(t, repo.DeleteRecord(ctx, "nobody", "outputs/x.png"))
}

func TestRepositoryCopiesRecords(t *testing.T) {
	repo := repomemory.New()
	ctx := context.Background()

	original := record("u1", "outputs/frozen.png", time.Now())
	require.NoError(t, repo.SaveRecord(ctx, original))

	// Mutating the caller's record after saving must not leak in.
	original.Filename = "mutated.png"

	records, err := repo.ListRecords(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "out.png", records[0].Filename)
}
