package services

import (
	"context"
	"errors"

	"github.com/shoptok/backend/internal/models"
	"go.uber.org/zap"
)

// Upload validation errors, surfaced to the client before any remote call
var (
	ErrNoFileProvided  = errors.New("no file uploaded")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
)

const (
	// MaxUploadSize caps a single uploaded file at 100 MiB. The transport
	// layer enforces the same cap on the whole request body; videos are
	// re-checked here explicitly.
	MaxUploadSize = 100 << 20

	// MaxProductImages bounds the product gallery
	MaxProductImages = 5

	// Destination folders on the media host
	ImageFolder = "shoptok/products"
	VideoFolder = "shoptok/videos"
)

// allowedImageTypes is the accepted image MIME set
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// allowedVideoTypes is the accepted video MIME set
var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/webm":      true,
}

// MediaStore defines the interface for the media host boundary
type MediaStore interface {
	// Store uploads the buffer and returns the stored asset descriptor
	Store(ctx context.Context, data []byte, kind models.MediaKind, folder string) (models.MediaAsset, error)
	// ThumbnailURL returns the derived still-frame transform URL for a video
	ThumbnailURL(publicID string) string
}

// UploadService validates uploaded files and hands them to the media store
type UploadService struct {
	store  MediaStore
	logger *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(store MediaStore, logger *zap.Logger) *UploadService {
	return &UploadService{
		store:  store,
		logger: logger,
	}
}

// UploadImage validates and stores a product image.
// Validation failures surface before the media store is touched.
func (s *UploadService) UploadImage(ctx context.Context, data []byte, contentType string) (models.MediaAsset, error) {
	if len(data) == 0 {
		return models.MediaAsset{}, ErrNoFileProvided
	}
	if !allowedImageTypes[contentType] {
		return models.MediaAsset{}, ErrInvalidFileType
	}

	asset, err := s.store.Store(ctx, data, models.MediaKindImage, ImageFolder)
	if err != nil {
		return models.MediaAsset{}, err
	}

	s.logger.Info("image uploaded",
		zap.String("publicId", asset.PublicID),
		zap.Int("bytes", len(data)),
	)
	return asset, nil
}

// UploadVideo validates and stores a product video, attaching the
// derived thumbnail URL on success.
func (s *UploadService) UploadVideo(ctx context.Context, data []byte, contentType string) (models.MediaAsset, error) {
	if len(data) == 0 {
		return models.MediaAsset{}, ErrNoFileProvided
	}
	if !allowedVideoTypes[contentType] {
		return models.MediaAsset{}, ErrInvalidFileType
	}
	// Exactly MaxUploadSize is accepted, one byte over is not
	if len(data) > MaxUploadSize {
		return models.MediaAsset{}, ErrFileTooLarge
	}

	asset, err := s.store.Store(ctx, data, models.MediaKindVideo, VideoFolder)
	if err != nil {
		return models.MediaAsset{}, err
	}

	asset.ThumbnailURL = s.store.ThumbnailURL(asset.PublicID)

	s.logger.Info("video uploaded",
		zap.String("publicId", asset.PublicID),
		zap.Int("bytes", len(data)),
	)
	return asset, nil
}
