package models

import (
	"slices"
	"time"
)

// ProductStatus represents the lifecycle state of a product listing
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusFlagged    ProductStatus = "flagged"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

// Categories is the enumerated set of valid product categories
var Categories = []string{
	"electronics", "fashion", "beauty", "home", "sports", "toys", "books", "phones", "other",
}

// IsValidCategory checks if the category is in the enumerated set
func IsValidCategory(category string) bool {
	return slices.Contains(Categories, category)
}

// Product represents a product listing in the feed.
// Images are an ordered gallery (0..5) and Video is optional; a product
// with neither is filtered out of public listings by the read queries,
// not rejected at write time.
type Product struct {
	ID            int           `json:"id"`
	SellerID      int           `json:"sellerId"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Price         float64       `json:"price"`
	OriginalPrice float64       `json:"originalPrice,omitempty"`
	Stock         int           `json:"stock"`
	Category      string        `json:"category"`
	Images        []MediaAsset  `json:"images"`
	Video         *MediaAsset   `json:"video"`
	Status        ProductStatus `json:"status"`
	Views         int           `json:"views"`
	Likes         int           `json:"likes"`
	TotalSales    int           `json:"totalSales"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// CreateProductRequest carries the fields required to create a product
type CreateProductRequest struct {
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Price         float64      `json:"price"`
	OriginalPrice float64      `json:"originalPrice"`
	Stock         int          `json:"stock"`
	Category      string       `json:"category"`
	Images        []MediaAsset `json:"images"`
	Video         *MediaAsset  `json:"video"`
}

// UpdateProductRequest carries a partial update. Nil fields keep their
// prior values. Images replace the stored gallery only when non-empty;
// Video replaces the stored video only when non-nil.
type UpdateProductRequest struct {
	Name          *string      `json:"name"`
	Description   *string      `json:"description"`
	Price         *float64     `json:"price"`
	OriginalPrice *float64     `json:"originalPrice"`
	Stock         *int         `json:"stock"`
	Category      *string      `json:"category"`
	Status        *string      `json:"status"`
	Images        []MediaAsset `json:"images"`
	Video         *MediaAsset  `json:"video"`
}

// ProductPage is a paginated product listing response
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Total    int       `json:"total"`
}
