package models

// MediaKind discriminates the two asset families handled by the media store.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaAsset represents a file stored on the remote media host.
// Assets are immutable once created and owned by exactly one product;
// two uploads of identical bytes produce two distinct assets.
type MediaAsset struct {
	URL             string    `json:"url"`
	PublicID        string    `json:"publicId"`
	Kind            MediaKind `json:"kind,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	DurationSeconds float64   `json:"duration,omitempty"`
	ThumbnailURL    string    `json:"thumbnail,omitempty"`
}
