package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shoptok/backend/internal/mediastore"
	"github.com/shoptok/backend/internal/middlewares"
	"github.com/shoptok/backend/internal/models"
	"github.com/shoptok/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockUploadService is a mock implementation of UploadService
type mockUploadService struct {
	asset       models.MediaAsset
	err         error
	imageCalls  int
	videoCalls  int
	gotData     []byte
	gotMimeType string
}

func (m *mockUploadService) UploadImage(ctx context.Context, data []byte, contentType string) (models.MediaAsset, error) {
	m.imageCalls++
	m.gotData = data
	m.gotMimeType = contentType
	if m.err != nil {
		return models.MediaAsset{}, m.err
	}
	return m.asset, nil
}

func (m *mockUploadService) UploadVideo(ctx context.Context, data []byte, contentType string) (models.MediaAsset, error) {
	m.videoCalls++
	m.gotData = data
	m.gotMimeType = contentType
	if m.err != nil {
		return models.MediaAsset{}, m.err
	}
	return m.asset, nil
}

func setupUploadRouter(svc *mockUploadService) *chi.Mux {
	handler := NewUploadHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

// multipartBody builds a multipart request body with one file field
func multipartBody(t *testing.T, field, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="upload.bin"`, field))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return body, mw.FormDataContentType()
}

func TestUploadHandler_UploadImage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockUploadService{
			asset: models.MediaAsset{
				URL:      "https://cdn.example.com/img",
				PublicID: "shoptok/products/abc",
				Width:    1080,
				Height:   1920,
			},
		}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "image", "image/jpeg", []byte("image-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/image", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.imageCalls)
		assert.Equal(t, []byte("image-bytes"), svc.gotData)
		assert.Equal(t, "image/jpeg", svc.gotMimeType)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "https://cdn.example.com/img", resp["url"])
		assert.Equal(t, "shoptok/products/abc", resp["publicId"])
		assert.Equal(t, float64(1080), resp["width"])
		assert.Equal(t, float64(1920), resp["height"])
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := &mockUploadService{}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "wrong-field", "image/jpeg", []byte("image-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/image", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No file uploaded")
		assert.Zero(t, svc.imageCalls)
	})

	t.Run("invalid file type", func(t *testing.T) {
		svc := &mockUploadService{err: services.ErrInvalidFileType}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "image", "application/pdf", []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/upload/image", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Only JPEG, PNG, WebP, and GIF are allowed")
	})

	t.Run("upload failure passes reason through", func(t *testing.T) {
		svc := &mockUploadService{
			err: fmt.Errorf("%w: Invalid image file", mediastore.ErrUploadFailed),
		}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "image", "image/jpeg", []byte("image-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/image", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Error uploading image", resp["message"])
		assert.Contains(t, resp["error"], "Invalid image file")
	})
}

func TestUploadHandler_UploadVideo(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockUploadService{
			asset: models.MediaAsset{
				URL:             "https://cdn.example.com/video",
				PublicID:        "shoptok/videos/v1",
				Width:           720,
				Height:          1280,
				DurationSeconds: 14.2,
				ThumbnailURL:    "https://cdn.example.com/video/upload/w_400,q_auto/shoptok/videos/v1.jpg",
			},
		}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "video", "video/mp4", []byte("video-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.videoCalls)
		assert.Equal(t, "video/mp4", svc.gotMimeType)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "shoptok/videos/v1", resp["publicId"])
		assert.Equal(t, 14.2, resp["duration"])
		assert.Contains(t, resp["thumbnail"], "w_400,q_auto")
	})

	t.Run("file too large", func(t *testing.T) {
		svc := &mockUploadService{err: services.ErrFileTooLarge}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "video", "video/mp4", []byte("video-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Maximum size is 100MB")
	})

	t.Run("invalid file type", func(t *testing.T) {
		svc := &mockUploadService{err: services.ErrInvalidFileType}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "video", "image/jpeg", []byte("image-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Only MP4, MOV, AVI, and WebM are allowed")
	})

	// The transport cap carries headroom for the multipart envelope, so
	// a file of exactly the maximum size still reaches the service
	t.Run("full-size video passes the transport limit", func(t *testing.T) {
		svc := &mockUploadService{
			asset: models.MediaAsset{PublicID: "shoptok/videos/v1"},
		}
		handler := NewUploadHandler(svc, zap.NewNop())
		router := chi.NewRouter()
		router.Use(middlewares.RequestSizeLimitMiddleware(services.MaxUploadSize + 64*1024))
		handler.RegisterRoutes(router)

		payload := bytes.Repeat([]byte("v"), services.MaxUploadSize)
		body, contentType := multipartBody(t, "video", "video/mp4", payload)
		req := httptest.NewRequest(http.MethodPost, "/upload/video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.videoCalls)
		assert.Len(t, svc.gotData, services.MaxUploadSize)
	})

	t.Run("upload timeout", func(t *testing.T) {
		svc := &mockUploadService{err: mediastore.ErrUploadTimeout}
		router := setupUploadRouter(svc)

		body, contentType := multipartBody(t, "video", "video/mp4", []byte("video-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload/video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Error uploading video", resp["message"])
		assert.Contains(t, resp["error"], "upload timeout")
	})
}
