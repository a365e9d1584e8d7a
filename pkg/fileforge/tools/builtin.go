package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

// Builtins returns the default tool table.
func Builtins() []Tool {
	return []Tool{
		{
			Slug:        "image-to-jpeg",
			Description: "Re-encode an image as JPEG",
			Transform:   encodeImage(imaging.JPEG, ".jpg", "image/jpeg"),
		},
		{
			Slug:        "image-to-png",
			Description: "Re-encode an image as PNG",
			Transform:   encodeImage(imaging.PNG, ".png", "image/png"),
		},
		{
			Slug:        "image-resize",
			Description: "Resize an image (width/height options, aspect kept when one is 0)",
			Transform:   resizeImage,
		},
		{
			Slug:        "zip-bundle",
			Description: "Bundle the uploaded files into one zip archive",
			MultiFile:   true,
			Transform:   zipBundle,
		},
		{
			Slug:        "merge-text",
			Description: "Concatenate text files in upload order",
			MultiFile:   true,
			Transform:   mergeText,
		},
	}
}

// encodeImage builds a transform re-encoding every input in the given format.
func encodeImage(format imaging.Format, ext, mimeType string) TransformFunc {
	return func(ctx context.Context, req Request) ([]fileforge.ProcessedFile, error) {
		out := make([]fileforge.ProcessedFile, 0, len(req.Files))
		for _, f := range req.Files {
			img, err := imaging.Decode(bytes.NewReader(f.Data))
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", f.Filename, err)
			}

			var buf bytes.Buffer
			var opts []imaging.EncodeOption
			if format == imaging.JPEG {
				opts = append(opts, imaging.JPEGQuality(90))
			}
			if err := imaging.Encode(&buf, img, format, opts...); err != nil {
				return nil, fmt.Errorf("encode %s: %w", f.Filename, err)
			}

			out = append(out, fileforge.ProcessedFile{
				Data:     buf.Bytes(),
				Filename: replaceExt(f.Filename, ext),
				MimeType: mimeType,
			})
		}
		return out, nil
	}
}

func resizeImage(ctx context.Context, req Request) ([]fileforge.ProcessedFile, error) {
	width, height, err := parseDimensions(req.Options)
	if err != nil {
		return nil, err
	}

	out := make([]fileforge.ProcessedFile, 0, len(req.Files))
	for _, f := range req.Files {
		img, err := imaging.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.Filename, err)
		}

		resized := imaging.Resize(img, width, height, imaging.Lanczos)

		format, err := imaging.FormatFromExtension(strings.TrimPrefix(filepath.Ext(f.Filename), "."))
		if err != nil {
			format = imaging.PNG
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Filename, err)
		}

		out = append(out, fileforge.ProcessedFile{
			Data:     buf.Bytes(),
			Filename: f.Filename,
			MimeType: f.MimeType,
		})
	}
	return out, nil
}

// parseDimensions reads width/height options; at least one must be a
// positive integer. A zero dimension keeps the aspect ratio.
func parseDimensions(options url.Values) (int, int, error) {
	width, err := parseDimension(options.Get("width"))
	if err != nil {
		return 0, 0, err
	}
	height, err := parseDimension(options.Get("height"))
	if err != nil {
		return 0, 0, err
	}
	if width == 0 && height == 0 {
		return 0, 0, fmt.Errorf("%w: width or height required", ErrInvalidOptions)
	}
	return width, height, nil
}

func parseDimension(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad dimension %q", ErrInvalidOptions, raw)
	}
	return n, nil
}

func zipBundle(ctx context.Context, req Request) ([]fileforge.ProcessedFile, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range req.Files {
		w, err := zw.Create(f.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", f.Filename, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip write %s: %w", f.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}

	return []fileforge.ProcessedFile{{
		Data:     buf.Bytes(),
		Filename: "bundle.zip",
		MimeType: "application/zip",
	}}, nil
}

func mergeText(ctx context.Context, req Request) ([]fileforge.ProcessedFile, error) {
	var buf bytes.Buffer
	for i, f := range req.Files {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(f.Data)
	}

	return []fileforge.ProcessedFile{{
		Data:     buf.Bytes(),
		Filename: "merged.txt",
		MimeType: "text/plain",
	}}, nil
}

func replaceExt(filename, ext string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "output"
	}
	return base + ext
}
