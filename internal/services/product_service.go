package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shoptok/backend/internal/models"
	"go.uber.org/zap"
)

// Product service errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotOwner        = errors.New("not authorized to modify this product")
)

// ProductListOptions narrows a paginated listing
type ProductListOptions struct {
	Page     int
	Limit    int
	SellerID int // 0 means no seller filter
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, opts ProductListOptions) ([]models.Product, int, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	IncrementViews(ctx context.Context, id int) error
	IsLiked(ctx context.Context, productID, userID int) (bool, error)
	AddLike(ctx context.Context, productID, userID int) error
	RemoveLike(ctx context.Context, productID, userID int) error
	CountLikes(ctx context.Context, productID int) (int, error)
}

// ProductService handles business logic for product listings.
// Writes are single-row and last-writer-wins: two concurrent edits to
// the same product can silently clobber each other.
type ProductService struct {
	productRepo ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(productRepo ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create validates and persists a new product owned by sellerID.
// A product with zero images and no video is allowed here; listing
// queries filter such products out on the read side.
func (s *ProductService) Create(ctx context.Context, sellerID int, req *models.CreateProductRequest) (*models.Product, error) {
	if err := validateProductFields(req.Name, req.Description, req.Price, req.Stock, req.Category); err != nil {
		return nil, err
	}
	if len(req.Images) > MaxProductImages {
		return nil, fmt.Errorf("at most %d images are allowed", MaxProductImages)
	}

	images := req.Images
	if images == nil {
		images = []models.MediaAsset{}
	}

	product := &models.Product{
		SellerID:      sellerID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Stock:         req.Stock,
		Category:      req.Category,
		Images:        images,
		Video:         req.Video,
		Status:        models.ProductStatusActive,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.Int("productId", product.ID),
		zap.Int("sellerId", sellerID),
		zap.Int("images", len(product.Images)),
		zap.Bool("hasVideo", product.Video != nil),
	)
	return product, nil
}

// Update merges a partial edit over the stored product. The caller must
// own the product or be an admin. Media arrays are wholesale-replaced
// only when the caller supplies a new value for that kind: an empty
// images slice or a nil video leaves the stored media untouched, so an
// edit that re-uploads one kind never implicitly clears the other.
func (s *ProductService) Update(ctx context.Context, id, callerID int, callerRole models.Role, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.SellerID != callerID && callerRole != models.RoleAdmin {
		return nil, ErrNotOwner
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		product.OriginalPrice = *req.OriginalPrice
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Status != nil {
		product.Status = models.ProductStatus(*req.Status)
	}
	if len(req.Images) > 0 {
		if len(req.Images) > MaxProductImages {
			return nil, fmt.Errorf("at most %d images are allowed", MaxProductImages)
		}
		product.Images = req.Images
	}
	if req.Video != nil {
		product.Video = req.Video
	}

	if err := validateProductFields(product.Name, product.Description, product.Price, product.Stock, product.Category); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", zap.Int("productId", id), zap.Int("callerId", callerID))
	return product, nil
}

// Get retrieves a product and increments its view counter
func (s *ProductService) Get(ctx context.Context, id int) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.IncrementViews(ctx, id); err != nil {
		// A lost view increment is not worth failing the read
		s.logger.Warn("failed to increment views", zap.Int("productId", id), zap.Error(err))
	} else {
		product.Views++
	}

	return product, nil
}

// Delete removes a product. The caller must own it or be an admin.
func (s *ProductService) Delete(ctx context.Context, id, callerID int, callerRole models.Role) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.SellerID != callerID && callerRole != models.RoleAdmin {
		return ErrNotOwner
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.Int("productId", id), zap.Int("callerId", callerID))
	return nil
}

// List returns a page of active products
func (s *ProductService) List(ctx context.Context, opts ProductListOptions) (*models.ProductPage, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 20
	}

	products, total, err := s.productRepo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	pages := (total + opts.Limit - 1) / opts.Limit
	return &models.ProductPage{
		Products: products,
		Page:     opts.Page,
		Pages:    pages,
		Total:    total,
	}, nil
}

// ListByCategory returns active products in a category
func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if !models.IsValidCategory(category) {
		return nil, fmt.Errorf("invalid category: %s", category)
	}
	return s.productRepo.ListByCategory(ctx, category)
}

// Search returns active products matching a full-text query
func (s *ProductService) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query required")
	}
	return s.productRepo.Search(ctx, query)
}

// ToggleLike flips the caller's like on a product and returns the new
// state with the resulting like count. The membership check and the
// write are separate statements, so two rapid toggles may race; the
// like table's primary key keeps the outcome consistent.
func (s *ProductService) ToggleLike(ctx context.Context, productID, userID int) (bool, int, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return false, 0, err
	}

	liked, err := s.productRepo.IsLiked(ctx, productID, userID)
	if err != nil {
		return false, 0, err
	}

	if liked {
		err = s.productRepo.RemoveLike(ctx, productID, userID)
	} else {
		err = s.productRepo.AddLike(ctx, productID, userID)
	}
	if err != nil {
		return false, 0, err
	}

	count, err := s.productRepo.CountLikes(ctx, productID)
	if err != nil {
		return false, 0, err
	}

	return !liked, count, nil
}

// validateProductFields checks the required create/update invariants
func validateProductFields(name, description string, price float64, stock int, category string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description is required")
	}
	if price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if !models.IsValidCategory(category) {
		return fmt.Errorf("invalid category: %s", category)
	}
	return nil
}
