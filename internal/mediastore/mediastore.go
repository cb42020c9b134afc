// Package mediastore wraps the remote media host that stores product
// images and videos and serves them by public URL.
package mediastore

import (
	"context"
	"errors"
	"time"

	"github.com/shoptok/backend/internal/models"
)

// Upload timeouts measured from call start, per asset kind
const (
	ImageUploadTimeout = 120 * time.Second
	VideoUploadTimeout = 300 * time.Second
)

var (
	// ErrUploadFailed indicates the host or the transport rejected the upload
	ErrUploadFailed = errors.New("upload failed")
	// ErrUploadTimeout indicates the kind-dependent deadline expired with no response
	ErrUploadTimeout = errors.New("upload timeout")
)

// StoredObject describes an asset as seen by listing operations
type StoredObject struct {
	PublicID string
	StoredAt time.Time
}

// Store is the boundary to the media host. Implementations are stateless
// and make a single remote attempt per call: a failure surfaces
// immediately to the caller, and no retry or cleanup happens here.
// Two calls with identical bytes produce two distinct stored assets.
type Store interface {
	// Store uploads the buffer into the given folder and returns the
	// asset descriptor. The deadline is 120s for images and 300s for
	// videos; expiry with no response yields ErrUploadTimeout.
	Store(ctx context.Context, data []byte, kind models.MediaKind, folder string) (models.MediaAsset, error)

	// ThumbnailURL returns the derived still-frame transform URL for a
	// stored video (400px wide, automatic quality). No second upload
	// happens; the host renders the frame on demand.
	ThumbnailURL(publicID string) string

	// List enumerates stored assets under a folder. Used by the
	// reconciliation sweep, never by the upload path.
	List(ctx context.Context, kind models.MediaKind, folder string) ([]StoredObject, error)

	// Remove deletes a stored asset. Used by the reconciliation sweep.
	Remove(ctx context.Context, kind models.MediaKind, publicID string) error
}

// uploadTimeout returns the kind-dependent upload deadline
func uploadTimeout(kind models.MediaKind) time.Duration {
	if kind == models.MediaKindVideo {
		return VideoUploadTimeout
	}
	return ImageUploadTimeout
}

// resourceType maps an asset kind onto the host's resource type path segment
func resourceType(kind models.MediaKind) string {
	if kind == models.MediaKindVideo {
		return "video"
	}
	return "image"
}
