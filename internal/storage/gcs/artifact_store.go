// Package gcs stores screenshot artifacts in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// ArtifactStore implements audit.ArtifactStore on a GCS bucket.
type ArtifactStore struct {
	client *storage.Client
	bucket string
	expiry time.Duration
	logger *zap.Logger
}

// NewArtifactStore dials GCS with ambient credentials. expiry controls how
// long signed download URLs stay valid.
func NewArtifactStore(ctx context.Context, bucket string, expiry time.Duration, logger *zap.Logger) (*ArtifactStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &ArtifactStore{
		client: client,
		bucket: bucket,
		expiry: expiry,
		logger: logger,
	}, nil
}

// Upload writes data under key, overwriting any existing object.
func (s *ArtifactStore) Upload(ctx context.Context, key string, contentType string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", key, err)
	}
	s.logger.Debug("uploaded artifact",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// SignedURL returns a V4 signed GET URL for key.
func (s *ArtifactStore) SignedURL(ctx context.Context, key string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(s.expiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %q: %w", key, err)
	}
	return url, nil
}

// Delete removes the given objects one by one. Objects that are already gone
// are not an error; the first real failure aborts the batch.
func (s *ArtifactStore) Delete(ctx context.Context, keys []string) error {
	bucket := s.client.Bucket(s.bucket)
	for _, key := range keys {
		err := bucket.Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete object %q: %w", key, err)
		}
	}
	s.logger.Debug("deleted artifacts", zap.String("bucket", s.bucket), zap.Int("count", len(keys)))
	return nil
}

// Close releases the underlying client.
func (s *ArtifactStore) Close() error {
	return s.client.Close()
}
