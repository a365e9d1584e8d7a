package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/fileforge/pkg/fileforge"
	fsstorage "github.com/fileforge/fileforge/pkg/fileforge/storage/fs"
)

func setupFS(t *testing.T, urlPrefix string) (*fsstorage.Backend, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := fsstorage.New(fsstorage.Config{BaseDir: dir, URLPrefix: urlPrefix})
	require.NoError(t, err)
	return store, dir
}

func TestFSBackendRequiresBaseDir(t *testing.T) {
	_, err := fsstorage.New(fsstorage.Config{})
	assert.Error(t, err)
}

func TestFSBackendRoundTrip(t *testing.T) {
	store, dir := setupFS(t, "")
	ctx := context.Background()

	obj, err := store.Upload(ctx, fileforge.UploadRequest{
		Data:        []byte("on disk"),
		Folder:      fileforge.FolderTemp,
		Filename:    "note.txt",
		ContentType: "text/plain",
		Class:       fileforge.ResourceRaw,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), obj.Size)

	// The object really is a file under the base directory.
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(obj.PublicID)))
	require.NoError(t, err)

	body, err := store.Download(ctx, obj.PublicID, fileforge.ResourceRaw)
	require.NoError(t, err)
	defer body.Close()
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, []byte("on disk"), got)
}

func TestFSBackendRejectsTraversal(t *testing.T) {
	store, _ := setupFS(t, "")

	_, err := store.Download(context.Background(), "../../etc/passwd", fileforge.ResourceRaw)
	assert.ErrorIs(t, err, fileforge.ErrObjectNotFound)
}

func TestFSBackendDeleteIdempotent(t *testing.T) {
	store, dir := setupFS(t, "")
	ctx := context.Background()

	obj, err := store.Upload(ctx, fileforge.UploadRequest{
		Data:     []byte("temp file"),
		Folder:   fileforge.FolderTemp,
		Filename: "x.bin",
		Class:    fileforge.ResourceRaw,
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, obj.PublicID, fileforge.ResourceRaw))
	require.NoError(t, store.Delete(ctx, obj.PublicID, fileforge.ResourceRaw))
	require.NoError(t, store.Delete(ctx, "temp/never/was.bin", fileforge.ResourceRaw))

	// Empty shard directories are pruned, the base directory survives.
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(obj.PublicID)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	require.NoError(t, err)
}

func TestFSBackendDownloadURL(t *testing.T) {
	withPrefix, _ := setupFS(t, "http://localhost:8080/objects/")
	ctx := context.Background()

	obj, err := withPrefix.Upload(ctx, fileforge.UploadRequest{
		Data:     []byte("x"),
		Folder:   fileforge.FolderOutputs,
		Filename: "f.txt",
		Class:    fileforge.ResourceRaw,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, obj.URL)

	u, err := withPrefix.DownloadURL(ctx, obj.PublicID, fileforge.ResourceRaw, "save as.txt")
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost:8080/objects/"+obj.PublicID)
	assert.Contains(t, u, "filename=save+as.txt")

	noPrefix, _ := setupFS(t, "")
	_, err = noPrefix.DownloadURL(ctx, obj.PublicID, fileforge.ResourceRaw, "f.txt")
	assert.ErrorIs(t, err, fileforge.ErrURLNotSupported)
}
