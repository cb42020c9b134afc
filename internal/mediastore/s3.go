package mediastore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shoptok/backend/internal/config"
	"github.com/shoptok/backend/internal/models"
)

// s3Store keeps assets in an S3-compatible object store. Dimensions are
// probed locally from the buffer; video duration is not available from
// the store and is left unset. Thumbnails are served by a transform
// proxy in front of the bucket.
type s3Store struct {
	client        *minio.Client
	bucket        string
	publicBase    string
	transformBase string
}

// NewS3Store creates a media store backed by an S3-compatible object store
func NewS3Store(cfg config.MediaConfig) (*s3Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	publicBase := strings.TrimRight(cfg.S3PublicBase, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.S3UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.S3Endpoint, cfg.S3Bucket)
	}

	return &s3Store{
		client:        client,
		bucket:        cfg.S3Bucket,
		publicBase:    publicBase,
		transformBase: strings.TrimRight(cfg.S3TransformBase, "/"),
	}, nil
}

// Store uploads the buffer into <folder>/<uuid><ext> and returns the asset
func (s *s3Store) Store(ctx context.Context, data []byte, kind models.MediaKind, folder string) (models.MediaAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout(kind))
	defer cancel()

	contentType, ext := sniffExtension(data)
	key := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return models.MediaAsset{}, ErrUploadTimeout
		}
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	asset := models.MediaAsset{
		URL:      s.publicBase + "/" + key,
		PublicID: key,
		Kind:     kind,
	}
	if kind == models.MediaKindImage {
		asset.Width, asset.Height = probeImageSize(data)
	}
	return asset, nil
}

// ThumbnailURL builds the transform-proxy URL for a stored video frame
func (s *s3Store) ThumbnailURL(publicID string) string {
	base := s.transformBase
	if base == "" {
		base = s.publicBase
	}
	return fmt.Sprintf("%s/w_400,q_auto/%s.jpg", base, publicID)
}

// List enumerates stored objects under a folder prefix
func (s *s3Store) List(ctx context.Context, _ models.MediaKind, folder string) ([]StoredObject, error) {
	prefix := strings.Trim(folder, "/") + "/"

	var objects []StoredObject
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		objects = append(objects, StoredObject{
			PublicID: info.Key,
			StoredAt: info.LastModified,
		})
	}
	return objects, nil
}

// Remove deletes a stored object
func (s *s3Store) Remove(ctx context.Context, _ models.MediaKind, publicID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", publicID, err)
	}
	return nil
}
