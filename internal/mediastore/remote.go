package mediastore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shoptok/backend/internal/config"
	"github.com/shoptok/backend/internal/models"
)

// remoteStore talks to a Cloudinary-compatible hosted upload API:
// multipart POST to <uploadBase>/<resourceType>/upload with a signed
// parameter set, JSON response carrying the durable URL and metadata.
type remoteStore struct {
	uploadBase   string
	deliveryBase string
	apiKey       string
	apiSecret    string
	client       *http.Client
}

// NewRemoteStore creates a media store backed by a hosted upload API
func NewRemoteStore(cfg config.MediaConfig) *remoteStore {
	return &remoteStore{
		uploadBase:   strings.TrimRight(cfg.UploadBase, "/"),
		deliveryBase: strings.TrimRight(cfg.DeliveryBase, "/"),
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		client:       &http.Client{},
	}
}

// uploadResponse is the host's JSON reply to an upload request
type uploadResponse struct {
	SecureURL string  `json:"secure_url"`
	PublicID  string  `json:"public_id"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Duration  float64 `json:"duration"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Store uploads the buffer to the host and returns the asset descriptor
func (s *remoteStore) Store(ctx context.Context, data []byte, kind models.MediaKind, folder string) (models.MediaAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout(kind))
	defer cancel()

	params := map[string]string{
		"folder":    folder,
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"quality":   "auto",
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	}
	if err := mw.WriteField("api_key", s.apiKey); err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := mw.WriteField("signature", s.sign(params)); err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	part, err := mw.CreateFormFile("file", "file")
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := part.Write(data); err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	endpoint := fmt.Sprintf("%s/%s/upload", s.uploadBase, resourceType(kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return models.MediaAsset{}, ErrUploadTimeout
		}
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return models.MediaAsset{}, ErrUploadTimeout
		}
		return models.MediaAsset{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.MediaAsset{}, fmt.Errorf("%w: invalid host response: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		reason := parsed.Error.Message
		if reason == "" {
			reason = fmt.Sprintf("host returned status %d", resp.StatusCode)
		}
		return models.MediaAsset{}, fmt.Errorf("%w: %s", ErrUploadFailed, reason)
	}

	asset := models.MediaAsset{
		URL:      parsed.SecureURL,
		PublicID: parsed.PublicID,
		Kind:     kind,
		Width:    parsed.Width,
		Height:   parsed.Height,
	}
	if kind == models.MediaKindVideo {
		asset.DurationSeconds = parsed.Duration
	}
	return asset, nil
}

// ThumbnailURL builds the derived still-frame transform URL for a video
func (s *remoteStore) ThumbnailURL(publicID string) string {
	return fmt.Sprintf("%s/video/upload/w_400,q_auto/%s.jpg", s.deliveryBase, publicID)
}

// listResponse is the host's JSON reply to a resource listing request
type listResponse struct {
	Resources []struct {
		PublicID  string    `json:"public_id"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"resources"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// List enumerates stored assets under a folder via the host's admin API
func (s *remoteStore) List(ctx context.Context, kind models.MediaKind, folder string) ([]StoredObject, error) {
	endpoint := fmt.Sprintf("%s/resources/%s?prefix=%s&max_results=500",
		s.uploadBase, resourceType(kind), url.QueryEscape(folder))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list request: %w", err)
	}
	req.SetBasicAuth(s.apiKey, s.apiSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer resp.Body.Close()

	var parsed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("invalid list response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list assets: %s", parsed.Error.Message)
	}

	objects := make([]StoredObject, 0, len(parsed.Resources))
	for _, res := range parsed.Resources {
		objects = append(objects, StoredObject{
			PublicID: res.PublicID,
			StoredAt: res.CreatedAt,
		})
	}
	return objects, nil
}

// Remove deletes a stored asset via the host's destroy endpoint
func (s *remoteStore) Remove(ctx context.Context, kind models.MediaKind, publicID string) error {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", s.apiKey)
	form.Set("signature", s.sign(params))

	endpoint := fmt.Sprintf("%s/%s/destroy", s.uploadBase, resourceType(kind))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to destroy asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to destroy asset %s: host returned status %d", publicID, resp.StatusCode)
	}
	return nil
}

// sign computes the request signature: parameters sorted by name, joined
// as k=v pairs with &, with the API secret appended, hashed with SHA-1
func (s *remoteStore) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.apiSecret))
	return hex.EncodeToString(sum[:])
}
