// Package minio provides an object store backed by MinIO through its native
// client. Any S3-compatible provider works; switching providers is an
// endpoint/credentials change, not a code change.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/objectkey"
)

// Config options for the MinIO backend
type Config struct {
	Endpoint        string // host:port, no scheme
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	PresignDuration int // seconds, default 3600

	// PublicBaseURL, when set, serves image-class objects as unsigned public
	// URLs (the bucket gets an anonymous-read policy at bootstrap).
	PublicBaseURL string

	CreateBucketIfNotExist bool
}

// Backend is a MinIO implementation of the fileforge.ObjectStore interface.
type Backend struct {
	client          *minio.Client
	bucket          string
	publicBaseURL   string
	presignDuration time.Duration
	keys            objectkey.Generator
}

// New creates a new MinIO object store.
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.PresignDuration == 0 {
		config.PresignDuration = 3600
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	backend := &Backend{
		client:          client,
		bucket:          config.Bucket,
		publicBaseURL:   strings.TrimSuffix(config.PublicBaseURL, "/"),
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		keys:            objectkey.NewRecommendedGenerator(),
	}

	if config.CreateBucketIfNotExist {
		if err := backend.ensureBucket(context.Background()); err != nil {
			return nil, err
		}
	}

	return backend, nil
}

// ensureBucket creates the bucket if missing and, when public delivery is
// configured, opens it for anonymous reads.
func (b *Backend) ensureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", b.bucket, err)
		}
	}

	if b.publicBaseURL != "" {
		if err := b.client.SetBucketPolicy(ctx, b.bucket, publicReadPolicy(b.bucket)); err != nil {
			return fmt.Errorf("set bucket policy: %w", err)
		}
	}
	return nil
}

func (b *Backend) Upload(ctx context.Context, req fileforge.UploadRequest) (*fileforge.StoredObject, error) {
	key := b.keys.GenerateKey(req.Folder, req.Filename)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := b.client.PutObject(ctx, b.bucket, key,
		bytes.NewReader(req.Data), int64(len(req.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, &fileforge.StorageError{Op: "upload", Key: key, Class: req.Class,
			Err: fmt.Errorf("put object: %w", err)}
	}

	retrievalURL, _ := b.DownloadURL(ctx, key, req.Class, req.Filename)

	return &fileforge.StoredObject{
		PublicID:      key,
		URL:           retrievalURL,
		ResourceClass: req.Class,
		Folder:        req.Folder,
		Size:          int64(len(req.Data)),
		ContentType:   contentType,
		UploadedAt:    time.Now().UTC(),
	}, nil
}

func (b *Backend) Download(ctx context.Context, publicID string, class fileforge.ResourceClass) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, publicID, minio.GetObjectOptions{})
	if err != nil {
		return nil, &fileforge.StorageError{Op: "download", Key: publicID, Class: class,
			Err: fmt.Errorf("get object: %w", err)}
	}

	// GetObject defers errors until the first read; Stat surfaces missing
	// keys now.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fileforge.ErrObjectNotFound
		}
		return nil, &fileforge.StorageError{Op: "download", Key: publicID, Class: class,
			Err: fmt.Errorf("stat object: %w", err)}
	}

	return obj, nil
}

func (b *Backend) DownloadURL(ctx context.Context, publicID string, class fileforge.ResourceClass, filename string) (string, error) {
	if class == fileforge.ResourceImage && b.publicBaseURL != "" {
		return b.publicBaseURL + "/" + publicID, nil
	}

	reqParams := make(url.Values)
	if filename != "" {
		reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}

	u, err := b.client.PresignedGetObject(ctx, b.bucket, publicID, b.presignDuration, reqParams)
	if err != nil {
		return "", &fileforge.StorageError{Op: "presign", Key: publicID, Class: class,
			Err: fmt.Errorf("presign get object: %w", err)}
	}

	return u.String(), nil
}

// Delete removes one object. Removing a missing key succeeds.
func (b *Backend) Delete(ctx context.Context, publicID string, class fileforge.ResourceClass) error {
	err := b.client.RemoveObject(ctx, b.bucket, publicID, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return &fileforge.StorageError{Op: "delete", Key: publicID, Class: class,
			Err: fmt.Errorf("remove object: %w", err)}
	}
	return nil
}

func (b *Backend) DeleteMany(ctx context.Context, publicIDs []string, class fileforge.ResourceClass) error {
	var errs []error
	for _, id := range publicIDs {
		if err := b.Delete(ctx, id, class); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET
// on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
