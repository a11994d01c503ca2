package publish_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	minio "github.com/minio/minio-go/v7"
	"github.com/open-rust-Initiative/cargo-plugins/internal/publish"
	"github.com/stretchr/testify/require"
)

type upload struct {
	bucket, key, path, contentType string
}

type fakeUploader struct {
	uploads []upload
	failOn  string
}

func (f *fakeUploader) FPutObject(_ context.Context, bucket, key, path string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if key == f.failOn {
		return minio.UploadInfo{}, errors.New("access denied")
	}
	f.uploads = append(f.uploads, upload{bucket, key, path, opts.ContentType})
	return minio.UploadInfo{Bucket: bucket, Key: key}, nil
}

func resultTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range []string{"report.json", "static_check/static_check.txt", "measure_check/details/src/lib.rs.toml"} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
	return dir
}

func TestUploadDir(t *testing.T) {
	up := &fakeUploader{}
	p := publish.NewWithUploader(up, publish.Config{Bucket: "quality", Prefix: "/ci/"})

	keys, err := p.UploadDir(context.Background(), resultTree(t), "RUN1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"ci/RUN1/report.json",
		"ci/RUN1/static_check/static_check.txt",
		"ci/RUN1/measure_check/details/src/lib.rs.toml",
	}, keys)
	require.Len(t, up.uploads, 3)
	for _, u := range up.uploads {
		require.Equal(t, "quality", u.bucket)
		require.FileExists(t, u.path)
		if u.key == "ci/RUN1/report.json" {
			require.Equal(t, "application/json", u.contentType)
		}
	}
}

func TestUploadDirFailure(t *testing.T) {
	up := &fakeUploader{failOn: "RUN1/report.json"}
	p := publish.NewWithUploader(up, publish.Config{Bucket: "quality"})
	_, err := p.UploadDir(context.Background(), resultTree(t), "RUN1")
	require.ErrorContains(t, err, "access denied")
}

func TestObjectKey(t *testing.T) {
	require.Equal(t, "RUN/a/b.txt", publish.ObjectKey("", "RUN", "a/b.txt"))
	require.Equal(t, "p/q/RUN/x", publish.ObjectKey("p/q/", "RUN", "x"))
}

func TestContentType(t *testing.T) {
	require.Equal(t, "application/toml", publish.ContentType("findings.toml"))
	require.Equal(t, "text/plain; charset=utf-8", publish.ContentType("static_check.txt"))
	require.Equal(t, "application/octet-stream", publish.ContentType("blob"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(publish.EnvEndpoint, "localhost:9000")
	t.Setenv(publish.EnvBucket, "quality")
	t.Setenv(publish.EnvAccessKey, "ak")
	t.Setenv(publish.EnvSecretKey, "sk")
	t.Setenv(publish.EnvUseSSL, "false")
	t.Setenv(publish.EnvPrefix, "")

	cfg, err := publish.ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, publish.Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "quality"}, cfg)

	p, err := publish.New(cfg)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestConfigFromEnvMissing(t *testing.T) {
	t.Setenv(publish.EnvEndpoint, "")
	t.Setenv(publish.EnvBucket, "")
	_, err := publish.ConfigFromEnv()
	require.ErrorIs(t, err, publish.ErrNotConfigured)
}

func TestConfigFromEnvBadSSL(t *testing.T) {
	t.Setenv(publish.EnvEndpoint, "localhost:9000")
	t.Setenv(publish.EnvBucket, "quality")
	t.Setenv(publish.EnvUseSSL, "maybe")
	_, err := publish.ConfigFromEnv()
	require.Error(t, err)
}
