// Package publish uploads a run's result directory to S3-compatible object
// storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Env variable names read by ConfigFromEnv.
const (
	EnvEndpoint  = "CARGO_QUALITY_S3_ENDPOINT"
	EnvAccessKey = "CARGO_QUALITY_S3_ACCESS_KEY"
	EnvSecretKey = "CARGO_QUALITY_S3_SECRET_KEY"
	EnvBucket    = "CARGO_QUALITY_S3_BUCKET"
	EnvPrefix    = "CARGO_QUALITY_S3_PREFIX"
	EnvUseSSL    = "CARGO_QUALITY_S3_USE_SSL"
)

// ErrNotConfigured is returned when the endpoint or bucket is missing.
var ErrNotConfigured = errors.New("object storage not configured")

// Config locates the bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// ConfigFromEnv reads the CARGO_QUALITY_S3_* variables. SSL defaults to on.
func ConfigFromEnv() (Config, error) {
	c := Config{
		Endpoint:  os.Getenv(EnvEndpoint),
		AccessKey: os.Getenv(EnvAccessKey),
		SecretKey: os.Getenv(EnvSecretKey),
		Bucket:    os.Getenv(EnvBucket),
		Prefix:    os.Getenv(EnvPrefix),
		UseSSL:    true,
	}
	if v := os.Getenv(EnvUseSSL); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", EnvUseSSL, err)
		}
		c.UseSSL = b
	}
	if c.Endpoint == "" || c.Bucket == "" {
		return Config{}, fmt.Errorf("%w: set %s and %s", ErrNotConfigured, EnvEndpoint, EnvBucket)
	}
	return c, nil
}

// Uploader is the subset of *minio.Client used here.
type Uploader interface {
	FPutObject(ctx context.Context, bucket, key, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads files to one bucket.
type Publisher struct {
	up  Uploader
	cfg Config
}

// New connects a minio client for cfg.
func New(cfg Config) (*Publisher, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Endpoint, err)
	}
	return &Publisher{up: mc, cfg: cfg}, nil
}

// NewWithUploader is New with an injected client.
func NewWithUploader(up Uploader, cfg Config) *Publisher {
	return &Publisher{up: up, cfg: cfg}
}

// ObjectKey is prefix/runID/rel with slashes normalized.
func ObjectKey(prefix, runID, rel string) string {
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, runID, filepath.ToSlash(rel))
	return path.Join(parts...)
}

// ContentType guesses the object content type from the file extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".toml":
		return "application/toml"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// UploadDir uploads every regular file under dir and returns the object keys
// in walk order. It stops at the first failed upload.
func (p *Publisher) UploadDir(ctx context.Context, dir, runID string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(dir, func(fp string, e os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, fp)
		if err != nil {
			return err
		}
		key := ObjectKey(p.cfg.Prefix, runID, rel)
		if _, err := p.up.FPutObject(ctx, p.cfg.Bucket, key, fp, minio.PutObjectOptions{
			ContentType: ContentType(fp),
		}); err != nil {
			return fmt.Errorf("uploading %s: %w", key, err)
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}
