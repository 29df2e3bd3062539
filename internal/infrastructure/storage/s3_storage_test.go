package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Bucket:          "invoices",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKeyID = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretAccessKey = "" }, "secret key is required"},
		{"bad endpoint", func(c *config.StorageConfig) { c.Endpoint = "http://" }, "invalid storage endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		assert.ErrorContains(t, err, "configuration is required")
	})
}

func TestNewS3ObjectStorage_Options(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig(), WithLogger(zaptest.NewLogger(t)), WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "invoices", s.GetBucket())
	assert.Equal(t, time.Hour, s.presignExpiration)

	s, err = NewS3ObjectStorage(validConfig(), WithPresignExpiration(0))
	require.NoError(t, err)
	assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = normalizeEndpoint("minio.local:9000")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local:9000", got)

	got, err = normalizeEndpoint("http://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("empty key", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
	})

	t.Run("presigned path style URL", func(t *testing.T) {
		u, expiresAt, err := s.GenerateDownloadURL(ctx, "invoices/owner/2026-0001.json", 0)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "http://localhost:9000/invoices/invoices/owner/2026-0001.json"), u)
		assert.Contains(t, u, "X-Amz-Signature")
		assert.WithinDuration(t, time.Now().Add(defaultPresignExpiration), expiresAt, 5*time.Second)
	})
}

func TestS3ObjectStorage_KeyValidation(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, s.Upload(ctx, "", []byte("x"), "application/json"))
	_, err = s.Download(ctx, "")
	assert.Error(t, err)
	_, err = s.ObjectExists(ctx, "")
	assert.Error(t, err)
}
