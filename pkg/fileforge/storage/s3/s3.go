// Package s3 provides an object store backed by AWS S3 or any S3-compatible
// service.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/objectkey"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (MinIO needs this)
	PresignDuration int    // Duration in seconds for presigned URLs (default: 3600)

	// PublicBaseURL, when set, serves image-class objects as unsigned public
	// URLs. Raw objects are always presigned.
	PublicBaseURL string

	// Server-side encryption options
	EnableSSE    bool   // Enable server-side encryption
	SSEAlgorithm string // SSE algorithm (AES256 or aws:kms)
	SSEKMSKeyID  string // Optional KMS key ID for aws:kms algorithm

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Backend is an S3-compatible implementation of the fileforge.ObjectStore
// interface.
type Backend struct {
	client          *s3.Client
	presignClient   *s3.PresignClient
	bucket          string
	publicBaseURL   string
	presignDuration time.Duration
	keys            objectkey.Generator
	config          Config
}

// HasCredentials reports whether static credentials were configured. Without
// them signed URL generation is degraded to whatever the default credential
// chain provides.
func (c Config) HasCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// New creates a new S3-compatible object store.
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	if config.PresignDuration == 0 {
		config.PresignDuration = 3600 // 1 hour default
	}

	var awsCfg aws.Config
	var err error

	if config.HasCredentials() {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		// Default credential chain. Presigning degrades if it is empty too;
		// startup must not fail over a missing secret.
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	backend := &Backend{
		client:          client,
		presignClient:   s3.NewPresignClient(client),
		bucket:          config.Bucket,
		publicBaseURL:   strings.TrimSuffix(config.PublicBaseURL, "/"),
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		keys:            objectkey.NewRecommendedGenerator(),
		config:          config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	if !isErrorCode(err, "NotFound", "NoSuchBucket", "BadRequest") {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to check bucket: %w", err)
		}
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	// Location constraint is required outside us-east-1
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	_, err = b.client.CreateBucket(ctx, createInput)
	if err != nil {
		if isErrorCode(err, "BucketAlreadyExists", "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// isErrorCode reports whether err carries one of the given S3 error codes.
func isErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

func (b *Backend) Upload(ctx context.Context, req fileforge.UploadRequest) (*fileforge.StoredObject, error) {
	key := b.keys.GenerateKey(req.Folder, req.Filename)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(req.Data),
		ContentType: aws.String(contentType),
	}
	b.applySSE(input)

	uploader := manager.NewUploader(b.client)
	if _, err := uploader.Upload(ctx, input); err != nil {
		return nil, &fileforge.StorageError{Op: "upload", Key: key, Class: req.Class,
			Err: fmt.Errorf("failed to upload to S3: %w", err)}
	}

	// URL generation may be degraded (no credentials); the id stays usable
	// through the download proxy either way.
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

// applySSE adds server-side encryption parameters if enabled.
func (b *Backend) applySSE(input *s3.PutObjectInput) {
	if !b.config.EnableSSE {
		return
	}
	switch b.config.SSEAlgorithm {
	case "AES256":
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	case "aws:kms":
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		if b.config.SSEKMSKeyID != "" {
			input.SSEKMSKeyId = aws.String(b.config.SSEKMSKeyID)
		}
	}
}

func (b *Backend) Download(ctx context.Context, publicID string, class fileforge.ResourceClass) (io.ReadCloser, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) || isErrorCode(err, "NoSuchKey") {
			return nil, fileforge.ErrObjectNotFound
		}
		return nil, &fileforge.StorageError{Op: "download", Key: publicID, Class: class,
			Err: fmt.Errorf("failed to download from S3: %w", err)}
	}

	return result.Body, nil
}

// DownloadURL returns a retrieval URL. Image objects use unsigned public
// delivery when a public base URL is configured; raw objects always get a
// presigned URL since providers refuse to serve arbitrary binaries publicly.
func (b *Backend) DownloadURL(ctx context.Context, publicID string, class fileforge.ResourceClass, filename string) (string, error) {
	if class == fileforge.ResourceImage && b.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", b.publicBaseURL, publicID), nil
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(publicID),
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", filename))
	}

	result, err := b.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = b.presignDuration
	})
	if err != nil {
		return "", &fileforge.StorageError{Op: "presign", Key: publicID, Class: class,
			Err: fmt.Errorf("failed to generate presigned download URL: %w", err)}
	}

	return result.URL, nil
}

// Delete removes one object. S3 deletions are idempotent: deleting a missing
// key succeeds.
func (b *Backend) Delete(ctx context.Context, publicID string, class fileforge.ResourceClass) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return &fileforge.StorageError{Op: "delete", Key: publicID, Class: class,
			Err: fmt.Errorf("failed to delete from S3: %w", err)}
	}

	return nil
}

func (b *Backend) DeleteMany(ctx context.Context, publicIDs []string, class fileforge.ResourceClass) error {
	if len(publicIDs) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(publicIDs))
	for _, id := range publicIDs {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(id)})
	}

	out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return &fileforge.StorageError{Op: "delete_many", Class: class,
			Err: fmt.Errorf("failed to batch delete from S3: %w", err)}
	}

	var errs []error
	for _, derr := range out.Errors {
		// Missing keys are fine; batch deletion stays idempotent.
		if aws.ToString(derr.Code) == "NoSuchKey" {
			continue
		}
		errs = append(errs, fmt.Errorf("delete %s: %s", aws.ToString(derr.Key), aws.ToString(derr.Message)))
	}
	if len(errs) > 0 {
		return &fileforge.StorageError{Op: "delete_many", Class: class, Err: errors.Join(errs...)}
	}

	return nil
}
