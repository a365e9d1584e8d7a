package fileforge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

func TestClassifyMime(t *testing.T) {
	tests := []struct {
		mimeType string
		want     fileforge.ResourceClass
	}{
		{"image/png", fileforge.ResourceImage},
		{"image/jpeg", fileforge.ResourceImage},
		{"image/svg+xml", fileforge.ResourceImage},
		{"application/pdf", fileforge.ResourceRaw},
		{"application/zip", fileforge.ResourceRaw},
		{"text/plain", fileforge.ResourceRaw},
		{"video/mp4", fileforge.ResourceRaw},
		{"", fileforge.ResourceRaw},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, fileforge.ClassifyMime(tt.mimeType))
		})
	}
}

func TestResourceClassValid(t *testing.T) {
	assert.True(t, fileforge.ResourceImage.Valid())
	assert.True(t, fileforge.ResourceRaw.Valid())
	assert.False(t, fileforge.ResourceClass("video").Valid())
	assert.False(t, fileforge.ResourceClass("").Valid())
}

func TestFolderFor(t *testing.T) {
	assert.Equal(t, fileforge.FolderOutputs, fileforge.FolderFor(true))
	assert.Equal(t, fileforge.FolderTemp, fileforge.FolderFor(false))
}

func TestProcessedFileClass(t *testing.T) {
	img := fileforge.ProcessedFile{Filename: "a.png", MimeType: "image/png"}
	assert.Equal(t, fileforge.ResourceImage, img.Class())

	bin := fileforge.ProcessedFile{Filename: "a.bin"}
	assert.Equal(t, fileforge.ResourceRaw, bin.Class())
}

func TestConversionResultRecords(t *testing.T) {
	single := &fileforge.ConversionResult{File: &fileforge.FileRecord{PublicID: "temp/a"}}
	assert.Len(t, single.Records(), 1)

	multi := &fileforge.ConversionResult{Files: []fileforge.FileRecord{{PublicID: "temp/a"}, {PublicID: "temp/b"}}}
	assert.Len(t, multi.Records(), 2)

	var nilResult *fileforge.ConversionResult
	assert.Nil(t, nilResult.Records())
}
