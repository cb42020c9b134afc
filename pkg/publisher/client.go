package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Client talks to the marketplace API over HTTP. It implements both
// AssetUploader and ProductWriter, so it can back a Publisher directly.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an API client. baseURL points at the API root
// (including the version prefix) and token is a seller access token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// apiError is the error body the API returns
type apiError struct {
	Message string `json:"message"`
	Reason  string `json:"error"`
}

func (e *apiError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Reason)
	}
	return e.Message
}

// UploadImage uploads one image via POST /upload/image
func (c *Client) UploadImage(ctx context.Context, data []byte, contentType string) (Asset, error) {
	return c.uploadFile(ctx, "/upload/image", "image", data, contentType)
}

// UploadVideo uploads one video via POST /upload/video
func (c *Client) UploadVideo(ctx context.Context, data []byte, contentType string) (Asset, error) {
	return c.uploadFile(ctx, "/upload/video", "video", data, contentType)
}

// CreateProduct writes a new product via POST /products
func (c *Client) CreateProduct(ctx context.Context, req *ProductInput) (*Product, error) {
	var product Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct edits a product via PUT /products/{id}
func (c *Client) UpdateProduct(ctx context.Context, productID int, req *ProductUpdate) (*Product, error) {
	var product Product
	path := fmt.Sprintf("/products/%d", productID)
	if err := c.doJSON(ctx, http.MethodPut, path, req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// uploadFile sends one file as a multipart request and decodes the
// returned asset
func (c *Client) uploadFile(ctx context.Context, path, field string, data []byte, contentType string) (Asset, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, field))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Asset{}, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Asset{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Asset{}, c.decodeError(resp)
	}

	var uploaded Asset
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return Asset{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return uploaded, nil
}

// doJSON sends a JSON request and decodes a JSON response
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an error carrying the
// server's message when it sent one
func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return fmt.Errorf("server returned %d: %w", resp.StatusCode, &body)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
