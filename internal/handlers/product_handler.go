package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shoptok/backend/internal/auth/middleware"
	"github.com/shoptok/backend/internal/models"
	"github.com/shoptok/backend/internal/services"
	"go.uber.org/zap"
)

// ProductService defines the interface for product service operations
type ProductService interface {
	// Method Create validates and persists a new product owned by sellerID.
	Create(ctx context.Context, sellerID int, req *models.CreateProductRequest) (*models.Product, error)
	// Method Update merges a partial edit over the stored product.
	Update(ctx context.Context, id, callerID int, callerRole models.Role, req *models.UpdateProductRequest) (*models.Product, error)
	// Method Get retrieves a product and increments its view counter.
	Get(ctx context.Context, id int) (*models.Product, error)
	// Method Delete removes a product owned by the caller.
	Delete(ctx context.Context, id, callerID int, callerRole models.Role) error
	// Method List returns a page of active products.
	List(ctx context.Context, opts services.ProductListOptions) (*models.ProductPage, error)
	// Method ListByCategory returns active products in a category.
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	// Method Search returns active products matching a full-text query.
	Search(ctx context.Context, query string) ([]models.Product, error)
	// Method ToggleLike flips the caller's like and returns the new state and count.
	ToggleLike(ctx context.Context, productID, userID int) (bool, int, error)
}

// ProductHandler handles product HTTP requests
type ProductHandler struct {
	BaseHandler
	productService ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		productService: productService,
	}
}

// RegisterPublicRoutes registers the unauthenticated read routes
func (h *ProductHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/search", h.Search)
	r.Get("/products/category/{category}", h.ListByCategory)
	r.Get("/products/{id}", h.Get)
}

// RegisterAuthRoutes registers routes available to any authenticated user
func (h *ProductHandler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/products/{id}/like", h.ToggleLike)
}

// RegisterSellerRoutes registers the seller-only write routes
func (h *ProductHandler) RegisterSellerRoutes(r chi.Router) {
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
}

// likeResponse is the response body for a like toggle
type likeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// List handles GET /products
// @Summary List products
// @Description Returns a page of active products with media, newest first
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param seller query int false "Filter by seller ID"
// @Success 200 {object} models.ProductPage
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := services.ProductListOptions{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}
	opts.SellerID = queryInt(r, "seller", 0)

	page, err := h.productService.List(r.Context(), opts)
	if err != nil {
		h.Logger.Error("failed to list products", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	h.RespondJSON(w, http.StatusOK, page)
}

// Get handles GET /products/{id}
// @Summary Get product
// @Description Returns a single product and counts the view
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	h.RespondJSON(w, http.StatusOK, product)
}

// ListByCategory handles GET /products/category/{category}
// @Summary List products by category
// @Tags products
// @Produce json
// @Param category path string true "Category name"
// @Success 200 {array} models.Product
// @Failure 400 {object} map[string]string "Invalid category"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/category/{category} [get]
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	products, err := h.productService.ListByCategory(r.Context(), category)
	if err != nil {
		if !models.IsValidCategory(category) {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("failed to list products by category", zap.String("category", category), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	h.RespondJSON(w, http.StatusOK, products)
}

// Search handles GET /products/search
// @Summary Search products
// @Description Full-text search over product names and descriptions
// @Tags products
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} models.Product
// @Failure 400 {object} map[string]string "Missing query"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/search [get]
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.RespondError(w, http.StatusBadRequest, "search query required")
		return
	}

	products, err := h.productService.Search(r.Context(), query)
	if err != nil {
		h.Logger.Error("failed to search products", zap.String("query", query), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	h.RespondJSON(w, http.StatusOK, products)
}

// Create handles POST /products
// @Summary Create product
// @Description Creates a product listing for the authenticated seller
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.CreateProductRequest true "Product fields"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Seller role required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), userID, &req)
	if err != nil {
		h.Logger.Warn("failed to create product", zap.Int("sellerId", userID), zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}
// @Summary Update product
// @Description Merges a partial edit over an existing product. Only the owner or an admin may edit.
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body models.UpdateProductRequest true "Fields to change"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	var req models.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Update(r.Context(), id, userID, role, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			h.RespondError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, services.ErrNotOwner):
			h.RespondError(w, http.StatusForbidden, "not authorized to modify this product")
		default:
			h.Logger.Warn("failed to update product", zap.Int("productId", id), zap.Error(err))
			h.RespondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.RespondJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}
// @Summary Delete product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	if err := h.productService.Delete(r.Context(), id, userID, role); err != nil {
		h.respondProductError(w, err, "failed to delete product")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// ToggleLike handles POST /products/{id}/like
// @Summary Toggle like
// @Description Likes the product if the caller has not liked it, unlikes otherwise
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} likeResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products/{id}/like [post]
func (h *ProductHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	liked, count, err := h.productService.ToggleLike(r.Context(), id, userID)
	if err != nil {
		h.respondProductError(w, err, "failed to toggle like")
		return
	}

	h.RespondJSON(w, http.StatusOK, likeResponse{Liked: liked, Likes: count})
}

// pathID parses the {id} path parameter, responding with 400 on garbage
func (h *ProductHandler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		h.RespondError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

// respondProductError maps common product errors onto HTTP statuses
func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, serverMsg string) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		h.RespondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrNotOwner):
		h.RespondError(w, http.StatusForbidden, "not authorized to modify this product")
	default:
		h.Logger.Error(serverMsg, zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, serverMsg)
	}
}

// queryInt parses an integer query parameter with a default
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
