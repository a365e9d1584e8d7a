// Package config loads server configuration from the environment and
// builds the storage and repository pieces from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/fileforge/fileforge/pkg/fileforge"
	repomemory "github.com/fileforge/fileforge/pkg/fileforge/repo/memory"
	repopg "github.com/fileforge/fileforge/pkg/fileforge/repo/postgres"
	fsstorage "github.com/fileforge/fileforge/pkg/fileforge/storage/fs"
	memorystorage "github.com/fileforge/fileforge/pkg/fileforge/storage/memory"
	miniostorage "github.com/fileforge/fileforge/pkg/fileforge/storage/minio"
	s3storage "github.com/fileforge/fileforge/pkg/fileforge/storage/s3"
)

// Config is the server configuration, populated from the environment.
type Config struct {
	Port           string `env:"PORT" env-default:"8080"`
	Environment    string `env:"ENVIRONMENT" env-default:"development"`
	FrontendOrigin string `env:"FRONTEND_ORIGIN" env-default:"http://localhost:3000"`
	MaxUploadMB    int64  `env:"MAX_UPLOAD_MB" env-default:"50"`

	// JWTSecret enables bearer-token verification. Empty means every
	// request runs as guest; the server logs a warning and keeps going.
	JWTSecret string `env:"JWT_SECRET" env-default:""`

	// GuestGraceWindow is how long guest objects survive before the
	// reaper deletes them.
	GuestGraceWindow time.Duration `env:"GUEST_GRACE_WINDOW" env-default:"5m"`

	StorageBackend string `env:"STORAGE_BACKEND" env-default:"memory"`

	// DatabaseURL, when set, enables the postgres conversion history
	// repository. Empty keeps history in memory.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	S3    S3Config
	Minio MinioConfig
	FS    FSConfig
}

// S3Config configures the s3 storage backend.
type S3Config struct {
	Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	Bucket          string `env:"S3_BUCKET" env-default:"fileforge"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL" env-default:""`
	PresignSeconds  int    `env:"S3_PRESIGN_SECONDS" env-default:"3600"`
	EnableSSE       bool   `env:"S3_ENABLE_SSE" env-default:"false"`
	SSEAlgorithm    string `env:"S3_SSE_ALGORITHM" env-default:"AES256"`
	SSEKMSKeyID     string `env:"S3_SSE_KMS_KEY_ID" env-default:""`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
}

// MinioConfig configures the minio storage backend.
type MinioConfig struct {
	Endpoint        string `env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretAccessKey string `env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket          string `env:"MINIO_BUCKET" env-default:"fileforge"`
	UseSSL          bool   `env:"MINIO_USE_SSL" env-default:"false"`
	PublicBaseURL   string `env:"MINIO_PUBLIC_BASE_URL" env-default:""`
	PresignSeconds  int    `env:"MINIO_PRESIGN_SECONDS" env-default:"3600"`
	CreateBucket    bool   `env:"MINIO_CREATE_BUCKET" env-default:"true"`
}

// FSConfig configures the filesystem storage backend.
type FSConfig struct {
	BaseDir   string `env:"FS_BASE_DIR" env-default:"./data/objects"`
	URLPrefix string `env:"FS_URL_PREFIX" env-default:""`
}

// Load reads a .env file when present, then the environment, then
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values no backend can work with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	if c.GuestGraceWindow <= 0 {
		return errors.New("GUEST_GRACE_WINDOW must be positive")
	}
	switch c.StorageBackend {
	case "memory", "fs", "s3", "minio":
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.StorageBackend)
	}
	if c.StorageBackend == "s3" && c.S3.Bucket == "" {
		return errors.New("S3_BUCKET is required for the s3 backend")
	}
	if c.StorageBackend == "minio" && c.Minio.Bucket == "" {
		return errors.New("MINIO_BUCKET is required for the minio backend")
	}
	return nil
}

// MaxUploadBytes returns the request body cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// BuildStore constructs the configured object store. A missing S3 secret
// degrades signed-URL generation but never fails startup.
func (c *Config) BuildStore(logger *slog.Logger) (fileforge.ObjectStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FS.BaseDir,
			URLPrefix: c.FS.URLPrefix,
		})

	case "s3":
		if !c.S3.HasCredentials() {
			logger.Warn("S3 credentials not configured, signed URL generation degraded",
				"bucket", c.S3.Bucket)
		}
		return s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			PresignDuration:        c.S3.PresignSeconds,
			PublicBaseURL:          c.S3.PublicBaseURL,
			EnableSSE:              c.S3.EnableSSE,
			SSEAlgorithm:           c.S3.SSEAlgorithm,
			SSEKMSKeyID:            c.S3.SSEKMSKeyID,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})

	case "minio":
		return miniostorage.New(miniostorage.Config{
			Endpoint:               c.Minio.Endpoint,
			AccessKeyID:            c.Minio.AccessKeyID,
			SecretAccessKey:        c.Minio.SecretAccessKey,
			Bucket:                 c.Minio.Bucket,
			UseSSL:                 c.Minio.UseSSL,
			PresignDuration:        c.Minio.PresignSeconds,
			PublicBaseURL:          c.Minio.PublicBaseURL,
			CreateBucketIfNotExist: c.Minio.CreateBucket,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.StorageBackend)
	}
}

// HasCredentials reports whether static S3 credentials were configured.
func (c S3Config) HasCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// BuildRepository constructs the conversion history repository. The
// returned pool is non-nil only for postgres; the caller owns its close.
func (c *Config) BuildRepository(ctx context.Context) (fileforge.Repository, *pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return repomemory.New(), nil, nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}
	return repopg.NewWithPool(pool), pool, nil
}
