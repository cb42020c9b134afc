package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shoptok/backend/internal/mediastore"
	"github.com/shoptok/backend/internal/models"
	"github.com/shoptok/backend/internal/services"
	"go.uber.org/zap"
)

// UploadService defines the interface for upload service operations
type UploadService interface {
	// Method UploadImage validates and stores a product image.
	//
	// "data" parameter is the raw file content.
	// "contentType" parameter is the declared MIME type of the file.
	//
	// If some error occurs during validation or upload, the error will be returned together with a zero asset.
	UploadImage(ctx context.Context, data []byte, contentType string) (models.MediaAsset, error)
	// Method UploadVideo validates and stores a product video.
	//
	// "data" parameter is the raw file content.
	// "contentType" parameter is the declared MIME type of the file.
	//
	// If some error occurs during validation or upload, the error will be returned together with a zero asset.
	UploadVideo(ctx context.Context, data []byte, contentType string) (models.MediaAsset, error)
}

// UploadHandler handles media upload HTTP requests
type UploadHandler struct {
	BaseHandler
	uploadService UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		uploadService: uploadService,
	}
}

// RegisterRoutes registers all upload handler routes
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload/image", h.UploadImage)
	r.Post("/upload/video", h.UploadVideo)
}

// imageUploadResponse is the response body for an image upload
type imageUploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// videoUploadResponse is the response body for a video upload
type videoUploadResponse struct {
	URL       string  `json:"url"`
	PublicID  string  `json:"publicId"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Thumbnail string  `json:"thumbnail"`
}

// UploadImage handles POST /upload/image
// @Summary Upload product image
// @Description Upload a single product image (multipart field "image"). Seller role required.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file (JPEG, PNG, WebP or GIF)"
// @Success 200 {object} imageUploadResponse
// @Failure 400 {object} map[string]string "Invalid or missing file"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 500 {object} map[string]string "Upload failed"
// @Security BearerAuth
// @Router /upload/image [post]
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := h.readFile(w, r, "image")
	if !ok {
		return
	}

	asset, err := h.uploadService.UploadImage(r.Context(), data, contentType)
	if err != nil {
		h.respondUploadError(w, err, "Error uploading image",
			"Invalid file type. Only JPEG, PNG, WebP, and GIF are allowed")
		return
	}

	h.RespondJSON(w, http.StatusOK, imageUploadResponse{
		URL:      asset.URL,
		PublicID: asset.PublicID,
		Width:    asset.Width,
		Height:   asset.Height,
	})
}

// UploadVideo handles POST /upload/video
// @Summary Upload product video
// @Description Upload a single product video (multipart field "video", max 100 MiB). Seller role required.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file (MP4, MOV, AVI or WebM)"
// @Success 200 {object} videoUploadResponse
// @Failure 400 {object} map[string]string "Invalid, missing or oversized file"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 500 {object} map[string]string "Upload failed"
// @Security BearerAuth
// @Router /upload/video [post]
func (h *UploadHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := h.readFile(w, r, "video")
	if !ok {
		return
	}

	asset, err := h.uploadService.UploadVideo(r.Context(), data, contentType)
	if err != nil {
		h.respondUploadError(w, err, "Error uploading video",
			"Invalid file type. Only MP4, MOV, AVI, and WebM are allowed")
		return
	}

	h.RespondJSON(w, http.StatusOK, videoUploadResponse{
		URL:       asset.URL,
		PublicID:  asset.PublicID,
		Duration:  asset.DurationSeconds,
		Width:     asset.Width,
		Height:    asset.Height,
		Thumbnail: asset.ThumbnailURL,
	})
}

// readFile extracts the single expected file field from the multipart
// body. Responds with 400 and returns ok=false on any client error.
func (h *UploadHandler) readFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return nil, "", false
	}

	file, fileHeader, err := r.FormFile(field)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Error("failed to read uploaded file", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read file")
		return nil, "", false
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, true
}

// respondUploadError maps upload errors onto the HTTP error surface.
// Validation errors are client errors; media store errors are surfaced
// as 500 with the reason passed through.
func (h *UploadHandler) respondUploadError(w http.ResponseWriter, err error, serverMsg, typeMsg string) {
	switch {
	case errors.Is(err, services.ErrNoFileProvided):
		h.RespondError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, services.ErrInvalidFileType):
		h.RespondError(w, http.StatusBadRequest, typeMsg)
	case errors.Is(err, services.ErrFileTooLarge):
		h.RespondError(w, http.StatusBadRequest, "File too large. Maximum size is 100MB")
	case errors.Is(err, mediastore.ErrUploadTimeout):
		h.Logger.Error("upload timed out", zap.Error(err))
		h.RespondErrorDetail(w, http.StatusInternalServerError, serverMsg, err)
	default:
		h.Logger.Error("upload failed", zap.Error(err))
		h.RespondErrorDetail(w, http.StatusInternalServerError, serverMsg, err)
	}
}
