// Copyright (c) 2026 Aria. All rights reserved.

/*
Package blob stores binary assets (avatars, covers, banners, album art) in
MinIO / S3-compatible object storage.

Objects are namespaced by asset kind, e.g. "character-avatars/test-hero".
Reads go through short-lived presigned URLs so the API server never proxies
image bytes.
*/
package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/soramiya/aria/internal/platform/config"
)

const (
	// MaxUploadBytes caps a single asset upload.
	MaxUploadBytes int64 = 5 * 1024 * 1024

	// downloadURLTTL is the lifetime of presigned download URLs.
	downloadURLTTL = 1 * time.Hour

	ensureBucketTimeout = 10 * time.Second
)

// Store wraps a MinIO client scoped to one bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to object storage and ensures the configured bucket exists.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: init client: %w", err)
	}

	ensureCtx, cancel := context.WithTimeout(ctx, ensureBucketTimeout)
	defer cancel()

	exists, err := client.BucketExists(ensureCtx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("blob: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ensureCtx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("blob: create bucket: %w", err)
		}
	}

	logger.Info("blob storage connected",
		slog.String("endpoint", cfg.MinioEndpoint),
		slog.String("bucket", cfg.MinioBucket),
	)

	return &Store{client: client, bucket: cfg.MinioBucket}, nil
}

// Upload stores an asset under "<namespace>/<id>", overwriting any previous
// version.
func (s *Store) Upload(ctx context.Context, namespace, id string, reader io.Reader, size int64, contentType string) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("blob: object exceeds %d bytes", MaxUploadBytes)
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectKey(namespace, id), reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("blob: upload %s/%s: %w", namespace, id, err)
	}
	return nil
}

// DownloadURL resolves a presigned GET URL for the asset, valid for one hour.
func (s *Store) DownloadURL(ctx context.Context, namespace, id string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey(namespace, id), downloadURLTTL, nil)
	if err != nil {
		return "", fmt.Errorf("blob: presign %s/%s: %w", namespace, id, err)
	}
	return url.String(), nil
}

func objectKey(namespace, id string) string {
	return namespace + "/" + id
}
