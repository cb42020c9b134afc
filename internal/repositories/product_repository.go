package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shoptok/backend/internal/models"
	"github.com/shoptok/backend/internal/services"
)

// productColumns is the select list shared by all product reads.
// Likes are counted from the join table on the fly.
const productColumns = `
	id, seller_id, name, description, price, original_price, stock, category,
	images, video, status, views, total_sales,
	(SELECT COUNT(*) FROM product_likes WHERE product_id = products.id) AS likes,
	created_at, updated_at
`

// productRepository implements product repository operations
type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB) *productRepository {
	return &productRepository{
		db: db,
	}
}

// Create inserts a new product and fills in its generated ID
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	imagesJSON, videoJSON, err := marshalMedia(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (seller_id, name, description, price, original_price, stock, category, images, video, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		product.SellerID,
		product.Name,
		product.Description,
		product.Price,
		product.OriginalPrice,
		product.Stock,
		product.Category,
		imagesJSON,
		videoJSON,
		product.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get product id: %w", err)
	}
	product.ID = int(id)

	return nil
}

// GetByID retrieves a product by ID
func (r *productRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ? LIMIT 1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, services.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return product, nil
}

// Update replaces the mutable fields of a product (single-row write,
// last writer wins)
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	imagesJSON, videoJSON, err := marshalMedia(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, original_price = ?, stock = ?,
		    category = ?, images = ?, video = ?, status = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.OriginalPrice,
		product.Stock,
		product.Category,
		imagesJSON,
		videoJSON,
		product.Status,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return services.ErrProductNotFound
	}

	return nil
}

// Delete removes a product and its likes
func (r *productRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return services.ErrProductNotFound
	}

	// Likes have no FK cascade; clean them up best-effort
	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_likes WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete product likes: %w", err)
	}

	return nil
}

// List retrieves a page of active, media-bearing products, newest first.
// Products with neither images nor a video are filtered out here rather
// than rejected at write time.
func (r *productRepository) List(ctx context.Context, opts services.ProductListOptions) ([]models.Product, int, error) {
	where := `WHERE status = 'active' AND (JSON_LENGTH(images) > 0 OR video IS NOT NULL)`
	args := []any{}
	if opts.SellerID != 0 {
		where += ` AND seller_id = ?`
		args = append(args, opts.SellerID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		productColumns, where)
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListByCategory retrieves active products in a category, newest first
func (r *productRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE category = ? AND status = 'active' AND (JSON_LENGTH(images) > 0 OR video IS NOT NULL)
		ORDER BY created_at DESC
	`, productColumns)

	return r.queryProducts(ctx, query, category)
}

// Search retrieves active products matching a full-text query
func (r *productRepository) Search(ctx context.Context, search string) ([]models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE MATCH(name, description) AGAINST(? IN NATURAL LANGUAGE MODE)
		  AND status = 'active' AND (JSON_LENGTH(images) > 0 OR video IS NOT NULL)
		LIMIT 50
	`, productColumns)

	return r.queryProducts(ctx, query, search)
}

// IncrementViews bumps the view counter
func (r *productRepository) IncrementViews(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// IsLiked checks membership in the like table
func (r *productRepository) IsLiked(ctx context.Context, productID, userID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM product_likes WHERE product_id = ? AND user_id = ?)`
	if err := r.db.QueryRowContext(ctx, query, productID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

// AddLike records a like; the composite primary key makes it idempotent
func (r *productRepository) AddLike(ctx context.Context, productID, userID int) error {
	query := `INSERT IGNORE INTO product_likes (product_id, user_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, productID, userID); err != nil {
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

// RemoveLike removes a like
func (r *productRepository) RemoveLike(ctx context.Context, productID, userID int) error {
	query := `DELETE FROM product_likes WHERE product_id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, productID, userID); err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	return nil
}

// CountLikes returns the like count for a product
func (r *productRepository) CountLikes(ctx context.Context, productID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM product_likes WHERE product_id = ?`
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// HasAssetReference reports whether any product references the given
// media public ID, in its gallery or as its video. Used by the
// reconciliation sweep.
func (r *productRepository) HasAssetReference(ctx context.Context, publicID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM products
			WHERE JSON_SEARCH(images, 'one', ?, NULL, '$[*].publicId') IS NOT NULL
			   OR JSON_EXTRACT(video, '$.publicId') = ?
		)
	`
	if err := r.db.QueryRowContext(ctx, query, publicID, publicID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check asset reference: %w", err)
	}
	return exists, nil
}

// queryProducts runs a multi-row product query
func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// rowScanner lets scanProduct accept both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct reads one product row, decoding the media JSON columns
func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	var imagesJSON []byte
	var videoJSON sql.NullString

	err := row.Scan(
		&product.ID,
		&product.SellerID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.OriginalPrice,
		&product.Stock,
		&product.Category,
		&imagesJSON,
		&videoJSON,
		&product.Status,
		&product.Views,
		&product.TotalSales,
		&product.Likes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Images = []models.MediaAsset{}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &product.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %w", err)
		}
	}

	if videoJSON.Valid && videoJSON.String != "" && videoJSON.String != "null" {
		var video models.MediaAsset
		if err := json.Unmarshal([]byte(videoJSON.String), &video); err != nil {
			return nil, fmt.Errorf("failed to decode video: %w", err)
		}
		product.Video = &video
	}

	return &product, nil
}

// marshalMedia encodes the media columns for writing
func marshalMedia(product *models.Product) ([]byte, any, error) {
	images := product.Images
	if images == nil {
		images = []models.MediaAsset{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode images: %w", err)
	}

	var videoJSON any
	if product.Video != nil {
		raw, err := json.Marshal(product.Video)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode video: %w", err)
		}
		videoJSON = raw
	}

	return imagesJSON, videoJSON, nil
}
