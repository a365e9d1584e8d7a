package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

func storeObject(t *testing.T, ts *testServer, name string, data []byte) *fileforge.StoredObject {
	t.Helper()
	obj, err := ts.store.Upload(context.Background(), fileforge.UploadRequest{
		Data:     data,
		Folder:   fileforge.FolderTemp,
		Filename: name,
		Class:    fileforge.ResourceRaw,
	})
	require.NoError(t, err)
	return obj
}

func TestDownloadByPublicID(t *testing.T) {
	ts := setupAPI(t)
	obj := storeObject(t, ts, "report.pdf", []byte("pdf bytes"))

	target := "/api/convert/download?" + url.Values{
		"publicId": {obj.PublicID},
		"filename": {"my report.pdf"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, `attachment; filename="my report.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "pdf bytes", rec.Body.String())
}

func TestDownloadMissingObject(t *testing.T) {
	ts := setupAPI(t)

	target := "/api/convert/download?" + url.Values{
		"publicId": {"temp/never_existed.bin"},
		"filename": {"x.bin"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", messageOf(t, rec))
}

func TestDownloadRequiresFilename(t *testing.T) {
	ts := setupAPI(t)

	rec := ts.do(t, http.MethodGet, "/api/convert/download?publicId=temp/x.bin", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Filename is required", messageOf(t, rec))
}

func TestDownloadRequiresSource(t *testing.T) {
	ts := setupAPI(t)

	rec := ts.do(t, http.MethodGet, "/api/convert/download?filename=x.bin", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Either publicId or url is required", messageOf(t, rec))
}

func TestDownloadInvalidClass(t *testing.T) {
	ts := setupAPI(t)

	target := "/api/convert/download?" + url.Values{
		"publicId": {"temp/x.bin"},
		"filename": {"x.bin"},
		"class":    {"video"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid resource class", messageOf(t, rec))
}

func TestDownloadByURL(t *testing.T) {
	ts := setupAPI(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("remote png bytes"))
	}))
	defer upstream.Close()

	target := "/api/convert/download?" + url.Values{
		"url":      {upstream.URL + "/img.png"},
		"filename": {"saved.png"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, `attachment; filename="saved.png"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "remote png bytes", rec.Body.String())
}

func TestDownloadByURLUpstreamFailure(t *testing.T) {
	ts := setupAPI(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer upstream.Close()

	target := "/api/convert/download?" + url.Values{
		"url":      {upstream.URL + "/gone.png"},
		"filename": {"gone.png"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Upstream returned status 404", messageOf(t, rec))
}

func TestDownloadByURLRejectsNonHTTP(t *testing.T) {
	ts := setupAPI(t)

	target := "/api/convert/download?" + url.Values{
		"url":      {"ftp://example.com/file.bin"},
		"filename": {"file.bin"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid url", messageOf(t, rec))
}

func TestDownloadByURLUnreachableUpstream(t *testing.T) {
	ts := setupAPI(t)

	// A server that is already closed: the single attempt fails, no retry.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	target := "/api/convert/download?" + url.Values{
		"url":      {upstream.URL + "/x.bin"},
		"filename": {"x.bin"},
	}.Encode()
	rec := ts.do(t, http.MethodGet, target, "", nil, "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch file", messageOf(t, rec))
}
