package mediastore

import (
	"bytes"
	"image"
	"mime"
	"net/http"

	// Registered decoders for dimension probing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// probeImageSize decodes just the image header to read its dimensions.
// Returns zeros when the format is not recognized.
func probeImageSize(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// sniffExtension detects the buffer's content type and returns both,
// the extension including the leading dot
func sniffExtension(data []byte) (contentType, extension string) {
	contentType = http.DetectContentType(data)

	// Prefer the well-known extensions over mime's first match
	switch contentType {
	case "image/jpeg":
		return contentType, ".jpg"
	case "image/png":
		return contentType, ".png"
	case "image/gif":
		return contentType, ".gif"
	case "image/webp":
		return contentType, ".webp"
	case "video/mp4":
		return contentType, ".mp4"
	case "video/webm":
		return contentType, ".webm"
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return contentType, ""
	}
	return contentType, exts[0]
}
