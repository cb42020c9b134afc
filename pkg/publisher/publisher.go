// Package publisher drives the client-side flow that turns a product
// draft with raw media files into a published listing: images first in
// the order given, then the video, then the product write. The first
// failure aborts the run and reports which stage broke.
//
// The package defines its own wire types (Asset, Product, ProductInput,
// ProductUpdate) so applications outside this module can implement
// AssetUploader and ProductWriter or consume results directly.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Stage identifies a step of the publication flow
type Stage string

const (
	StageIdle            Stage = "idle"
	StageUploadingImages Stage = "uploading_images"
	StageUploadingVideo  Stage = "uploading_video"
	StageWritingProduct  Stage = "writing_product"
	StageDone            Stage = "done"
)

// MaxGalleryImages bounds the product image gallery
const MaxGalleryImages = 5

// Draft validation errors, raised before the first upload starts
var (
	ErrTooManyImages = errors.New("gallery holds at most 5 images")
	ErrNoMedia       = errors.New("at least one image or a video is required")
)

// MediaFile is a raw media file to upload
type MediaFile struct {
	Data        []byte
	ContentType string
}

// Asset describes a stored media asset as the API returns it
type Asset struct {
	URL             string  `json:"url"`
	PublicID        string  `json:"publicId"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	DurationSeconds float64 `json:"duration,omitempty"`
	ThumbnailURL    string  `json:"thumbnail,omitempty"`
}

// Product is a product listing as the API returns it
type Product struct {
	ID            int       `json:"id"`
	SellerID      int       `json:"sellerId"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice,omitempty"`
	Stock         int       `json:"stock"`
	Category      string    `json:"category"`
	Images        []Asset   `json:"images"`
	Video         *Asset    `json:"video"`
	Status        string    `json:"status"`
	Views         int       `json:"views"`
	Likes         int       `json:"likes"`
	TotalSales    int       `json:"totalSales"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProductInput is the create-product payload sent after the media is
// uploaded
type ProductInput struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Stock         int     `json:"stock"`
	Category      string  `json:"category"`
	Images        []Asset `json:"images"`
	Video         *Asset  `json:"video,omitempty"`
}

// ProductUpdate is a partial update payload. Nil fields are omitted
// from the request and keep their stored values.
type ProductUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Stock         *int     `json:"stock,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Status        *string  `json:"status,omitempty"`
	Images        []Asset  `json:"images,omitempty"`
	Video         *Asset   `json:"video,omitempty"`
}

// Draft holds everything needed to publish a new product
type Draft struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice float64
	Stock         int
	Category      string
	Images        []MediaFile
	Video         *MediaFile
}

// Edit holds a partial product edit. Nil fields are left untouched.
// Media kinds work the same way: supplying Images re-uploads and
// replaces the gallery, supplying Video replaces the video, and an
// omitted kind keeps whatever the product already has.
type Edit struct {
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	Stock         *int
	Category      *string
	Status        *string
	Images        []MediaFile
	Video         *MediaFile
}

// Progress is a snapshot of how far a run has gotten. Percent grows
// monotonically and reaches 100 exactly when the run completes.
type Progress struct {
	Stage          Stage
	Percent        int
	CompletedSteps int
	TotalSteps     int
}

// FailedError reports which stage a run died in
type FailedError struct {
	Stage Stage
	Err   error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("publication failed during %s: %v", e.Stage, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// AssetUploader defines the interface for media uploads
type AssetUploader interface {
	// Method UploadImage stores one product image and returns the resulting asset.
	UploadImage(ctx context.Context, data []byte, contentType string) (Asset, error)
	// Method UploadVideo stores one product video and returns the resulting asset.
	UploadVideo(ctx context.Context, data []byte, contentType string) (Asset, error)
}

// ProductWriter defines the interface for product record writes
type ProductWriter interface {
	// Method CreateProduct persists a new product built from uploaded assets.
	CreateProduct(ctx context.Context, req *ProductInput) (*Product, error)
	// Method UpdateProduct merges a partial edit over an existing product.
	UpdateProduct(ctx context.Context, productID int, req *ProductUpdate) (*Product, error)
}

// Option configures a Publisher
type Option func(*Publisher)

// WithProgress installs a progress callback. It is invoked from the
// publishing goroutine; keep it fast.
func WithProgress(fn func(Progress)) Option {
	return func(p *Publisher) {
		p.onProgress = fn
	}
}

// WithRetries makes each individual asset upload retry up to maxRetries
// times, sleeping backoff between attempts. The default is no retries.
func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(p *Publisher) {
		p.maxRetries = maxRetries
		p.backoff = backoff
	}
}

// WithConcurrency uploads up to n images at a time. The gallery order
// is preserved regardless: each result lands in the slot of the file it
// came from. Values below 2 keep the default strictly sequential flow.
func WithConcurrency(n int) Option {
	return func(p *Publisher) {
		p.concurrency = n
	}
}

// Publisher runs publication and edit flows against an upload backend
// and a product writer
type Publisher struct {
	uploader    AssetUploader
	writer      ProductWriter
	onProgress  func(Progress)
	maxRetries  int
	backoff     time.Duration
	concurrency int
}

// New creates a Publisher
func New(uploader AssetUploader, writer ProductWriter, opts ...Option) *Publisher {
	p := &Publisher{
		uploader:    uploader,
		writer:      writer,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish uploads the draft's media and writes the product record.
// The draft is validated before anything is uploaded: at most 5 gallery
// images, and at least one image or a video. Steps then run in order:
// every image, then the video if present, then the record write. The
// first error aborts the run; nothing is rolled back, already-uploaded
// assets are left for the reconciliation sweep.
func (p *Publisher) Publish(ctx context.Context, draft *Draft) (*Product, error) {
	if err := validateMedia(draft.Images, draft.Video, true); err != nil {
		return nil, &FailedError{Stage: StageIdle, Err: err}
	}

	run := p.newRun(len(draft.Images), draft.Video != nil)

	assets, err := p.uploadImages(ctx, draft.Images, run)
	if err != nil {
		return nil, &FailedError{Stage: StageUploadingImages, Err: err}
	}

	video, err := p.uploadVideo(ctx, draft.Video, run)
	if err != nil {
		return nil, &FailedError{Stage: StageUploadingVideo, Err: err}
	}

	run.report(StageWritingProduct)
	if err := ctx.Err(); err != nil {
		return nil, &FailedError{Stage: StageWritingProduct, Err: err}
	}

	product, err := p.writer.CreateProduct(ctx, &ProductInput{
		Name:          draft.Name,
		Description:   draft.Description,
		Price:         draft.Price,
		OriginalPrice: draft.OriginalPrice,
		Stock:         draft.Stock,
		Category:      draft.Category,
		Images:        assets,
		Video:         video,
	})
	if err != nil {
		return nil, &FailedError{Stage: StageWritingProduct, Err: err}
	}

	run.complete()
	return product, nil
}

// Edit re-uploads only the media kinds the edit supplies and sends the
// merged update. A kind the edit omits is never re-uploaded and never
// cleared on the server. An edit with no media at all is valid; the
// gallery bound still applies when images are supplied.
func (p *Publisher) Edit(ctx context.Context, productID int, edit *Edit) (*Product, error) {
	if err := validateMedia(edit.Images, edit.Video, false); err != nil {
		return nil, &FailedError{Stage: StageIdle, Err: err}
	}

	run := p.newRun(len(edit.Images), edit.Video != nil)

	assets, err := p.uploadImages(ctx, edit.Images, run)
	if err != nil {
		return nil, &FailedError{Stage: StageUploadingImages, Err: err}
	}

	video, err := p.uploadVideo(ctx, edit.Video, run)
	if err != nil {
		return nil, &FailedError{Stage: StageUploadingVideo, Err: err}
	}

	run.report(StageWritingProduct)
	if err := ctx.Err(); err != nil {
		return nil, &FailedError{Stage: StageWritingProduct, Err: err}
	}

	req := &ProductUpdate{
		Name:          edit.Name,
		Description:   edit.Description,
		Price:         edit.Price,
		OriginalPrice: edit.OriginalPrice,
		Stock:         edit.Stock,
		Category:      edit.Category,
		Status:        edit.Status,
	}
	if len(assets) > 0 {
		req.Images = assets
	}
	if video != nil {
		req.Video = video
	}

	product, err := p.writer.UpdateProduct(ctx, productID, req)
	if err != nil {
		return nil, &FailedError{Stage: StageWritingProduct, Err: err}
	}

	run.complete()
	return product, nil
}

// validateMedia gates a run before the first upload so an invalid draft
// cannot orphan any assets. mediaRequired distinguishes a publish,
// which must carry at least one asset, from an edit, which may carry
// none.
func validateMedia(images []MediaFile, video *MediaFile, mediaRequired bool) error {
	if len(images) > MaxGalleryImages {
		return ErrTooManyImages
	}
	if mediaRequired && len(images) == 0 && video == nil {
		return ErrNoMedia
	}
	return nil
}

// uploadImages uploads the gallery, sequentially by default or with a
// bounded worker pool when concurrency was configured. Results are
// returned in input order either way.
func (p *Publisher) uploadImages(ctx context.Context, images []MediaFile, run *runState) ([]Asset, error) {
	if len(images) == 0 {
		return nil, nil
	}
	run.report(StageUploadingImages)

	if p.concurrency > 1 {
		return p.uploadImagesParallel(ctx, images, run)
	}

	assets := make([]Asset, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asset, err := p.uploadWithRetry(ctx, img, p.uploader.UploadImage)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
		run.step(StageUploadingImages)
	}
	return assets, nil
}

// uploadImagesParallel fans the gallery out over an errgroup. Each
// goroutine writes into its own slot so the returned order matches the
// input; the group context cancels the rest on the first failure.
func (p *Publisher) uploadImagesParallel(ctx context.Context, images []MediaFile, run *runState) ([]Asset, error) {
	assets := make([]Asset, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			asset, err := p.uploadWithRetry(gctx, img, p.uploader.UploadImage)
			if err != nil {
				return err
			}
			assets[i] = asset
			run.step(StageUploadingImages)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// uploadVideo uploads the video if present
func (p *Publisher) uploadVideo(ctx context.Context, video *MediaFile, run *runState) (*Asset, error) {
	if video == nil {
		return nil, nil
	}

	run.report(StageUploadingVideo)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asset, err := p.uploadWithRetry(ctx, *video, p.uploader.UploadVideo)
	if err != nil {
		return nil, err
	}
	run.step(StageUploadingVideo)
	return &asset, nil
}

// uploadWithRetry runs one upload, retrying per the configured policy.
// Context cancellation stops the retry loop immediately.
func (p *Publisher) uploadWithRetry(ctx context.Context, file MediaFile, upload func(context.Context, []byte, string) (Asset, error)) (Asset, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 && p.backoff > 0 {
			select {
			case <-ctx.Done():
				return Asset{}, ctx.Err()
			case <-time.After(p.backoff):
			}
		}

		asset, err := upload(ctx, file.Data, file.ContentType)
		if err == nil {
			return asset, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return Asset{}, ctx.Err()
		}
	}
	return Asset{}, lastErr
}

// newRun sets up step accounting for one publish or edit. Total steps
// are the image uploads, the video upload if any, and the record write.
func (p *Publisher) newRun(imageCount int, hasVideo bool) *runState {
	total := imageCount + 1
	if hasVideo {
		total++
	}
	run := &runState{publisher: p, totalSteps: total}
	run.report(StageIdle)
	return run
}

// runState tracks completed steps for progress reporting. step and
// report may be called from upload goroutines; the mutex serializes
// them so Percent never goes backwards.
type runState struct {
	publisher  *Publisher
	totalSteps int

	mu        sync.Mutex
	completed int
}

// step marks one unit of work done and reports progress
func (r *runState) step(stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	r.emit(stage)
}

// report emits progress without advancing the step counter
func (r *runState) report(stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(stage)
}

// complete marks the record write done and emits the terminal snapshot
func (r *runState) complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = r.totalSteps
	r.emit(StageDone)
}

func (r *runState) emit(stage Stage) {
	if r.publisher.onProgress == nil {
		return
	}
	r.publisher.onProgress(Progress{
		Stage:          stage,
		Percent:        r.completed * 100 / r.totalSteps,
		CompletedSteps: r.completed,
		TotalSteps:     r.totalSteps,
	})
}
