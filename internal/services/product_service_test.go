package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shoptok/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProductRepository is a mock implementation of ProductRepository
type mockProductRepository struct {
	product       *models.Product
	products      []models.Product
	total         int
	liked         bool
	likeCount     int
	err           error
	updateErr     error
	viewsErr      error
	created       *models.Product
	updated       *models.Product
	addLikeCalled bool
	rmLikeCalled  bool
}

func (m *mockProductRepository) Create(ctx context.Context, product *models.Product) error {
	if m.err != nil {
		return m.err
	}
	product.ID = 42
	m.created = product
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil {
		return nil, ErrProductNotFound
	}
	copied := *m.product
	return &copied, nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *models.Product) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int) error {
	return m.err
}

func (m *mockProductRepository) List(ctx context.Context, opts ProductListOptions) ([]models.Product, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.products, m.total, nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return m.products, m.err
}

func (m *mockProductRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	return m.products, m.err
}

func (m *mockProductRepository) IncrementViews(ctx context.Context, id int) error {
	return m.viewsErr
}

func (m *mockProductRepository) IsLiked(ctx context.Context, productID, userID int) (bool, error) {
	return m.liked, nil
}

func (m *mockProductRepository) AddLike(ctx context.Context, productID, userID int) error {
	m.addLikeCalled = true
	return nil
}

func (m *mockProductRepository) RemoveLike(ctx context.Context, productID, userID int) error {
	m.rmLikeCalled = true
	return nil
}

func (m *mockProductRepository) CountLikes(ctx context.Context, productID int) (int, error) {
	return m.likeCount, nil
}

func validCreateRequest() *models.CreateProductRequest {
	return &models.CreateProductRequest{
		Name:        "Wireless Earbuds",
		Description: "Noise cancelling wireless earbuds",
		Price:       59.99,
		Stock:       10,
		Category:    "electronics",
		Images: []models.MediaAsset{
			{URL: "https://cdn.example.com/a", PublicID: "shoptok/products/a"},
		},
	}
}

func storedProduct() *models.Product {
	return &models.Product{
		ID:          7,
		SellerID:    1,
		Name:        "Wireless Earbuds",
		Description: "Noise cancelling wireless earbuds",
		Price:       59.99,
		Stock:       10,
		Category:    "electronics",
		Status:      models.ProductStatusActive,
		Images: []models.MediaAsset{
			{URL: "https://cdn.example.com/a", PublicID: "shoptok/products/a"},
			{URL: "https://cdn.example.com/b", PublicID: "shoptok/products/b"},
		},
		Video: &models.MediaAsset{URL: "https://cdn.example.com/v", PublicID: "shoptok/videos/v"},
	}
}

func TestProductService_Create(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*models.CreateProductRequest)
		expectedError string
	}{
		{
			name:   "success",
			mutate: func(r *models.CreateProductRequest) {},
		},
		{
			name:          "empty name",
			mutate:        func(r *models.CreateProductRequest) { r.Name = "  " },
			expectedError: "name is required",
		},
		{
			name:          "empty description",
			mutate:        func(r *models.CreateProductRequest) { r.Description = "" },
			expectedError: "description is required",
		},
		{
			name:          "negative price",
			mutate:        func(r *models.CreateProductRequest) { r.Price = -1 },
			expectedError: "price cannot be negative",
		},
		{
			name:          "negative stock",
			mutate:        func(r *models.CreateProductRequest) { r.Stock = -1 },
			expectedError: "stock cannot be negative",
		},
		{
			name:          "unknown category",
			mutate:        func(r *models.CreateProductRequest) { r.Category = "weapons" },
			expectedError: "invalid category",
		},
		{
			name: "too many images",
			mutate: func(r *models.CreateProductRequest) {
				r.Images = make([]models.MediaAsset, MaxProductImages+1)
			},
			expectedError: "at most 5 images",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProductRepository{}
			svc := NewProductService(repo, zap.NewNop())

			req := validCreateRequest()
			tt.mutate(req)

			product, err := svc.Create(context.Background(), 1, req)

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
				assert.Nil(t, repo.created)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 42, product.ID)
			assert.Equal(t, 1, product.SellerID)
			assert.Equal(t, models.ProductStatusActive, product.Status)
		})
	}
}

func TestProductService_CreateWithoutMediaAllowed(t *testing.T) {
	repo := &mockProductRepository{}
	svc := NewProductService(repo, zap.NewNop())

	req := validCreateRequest()
	req.Images = nil
	req.Video = nil

	product, err := svc.Create(context.Background(), 1, req)

	require.NoError(t, err)
	assert.Empty(t, product.Images)
	assert.Nil(t, product.Video)
}

func TestProductService_Update(t *testing.T) {
	newName := "Renamed Earbuds"
	newPrice := 49.99

	t.Run("owner can edit", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		product, err := svc.Update(context.Background(), 7, 1, models.RoleSeller, &models.UpdateProductRequest{
			Name:  &newName,
			Price: &newPrice,
		})

		require.NoError(t, err)
		assert.Equal(t, newName, product.Name)
		assert.Equal(t, newPrice, product.Price)
		// Untouched fields survive the merge
		assert.Equal(t, "electronics", product.Category)
		assert.Equal(t, 10, product.Stock)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		_, err := svc.Update(context.Background(), 7, 99, models.RoleSeller, &models.UpdateProductRequest{Name: &newName})

		assert.ErrorIs(t, err, ErrNotOwner)
		assert.Nil(t, repo.updated)
	})

	t.Run("admin can edit any product", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		_, err := svc.Update(context.Background(), 7, 99, models.RoleAdmin, &models.UpdateProductRequest{Name: &newName})

		assert.NoError(t, err)
	})

	t.Run("missing product", func(t *testing.T) {
		repo := &mockProductRepository{}
		svc := NewProductService(repo, zap.NewNop())

		_, err := svc.Update(context.Background(), 7, 1, models.RoleSeller, &models.UpdateProductRequest{Name: &newName})

		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("merged result is revalidated", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		bad := -5.0
		_, err := svc.Update(context.Background(), 7, 1, models.RoleSeller, &models.UpdateProductRequest{Price: &bad})

		assert.ErrorContains(t, err, "price cannot be negative")
	})
}

func TestProductService_UpdateMediaReplacement(t *testing.T) {
	newImages := []models.MediaAsset{
		{URL: "https://cdn.example.com/new", PublicID: "shoptok/products/new"},
	}
	newVideo := &models.MediaAsset{URL: "https://cdn.example.com/nv", PublicID: "shoptok/videos/nv"}

	t.Run("empty images keep stored gallery", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		product, err := svc.Update(context.Background(), 7, 1, models.RoleSeller, &models.UpdateProductRequest{})

		require.NoError(t, err)
		assert.Len(t, product.Images, 2)
		assert.NotNil(t, product.Video)
	})

	t.Run("new images replace gallery and keep video", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		product, err := svc.Update(context.Background(), 7, 1, models.RoleSeller, &models.UpdateProductRequest{
			Images: newImages,
		})

		require.NoError(t, err)
		assert.Equal(t, newImages, product.Images)
		require.NotNil(t, product.Video)
		assert.Equal(t, "shoptok/videos/v", product.Video.PublicID)
	})

	t.Run("new video replaces video and keeps gallery", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		product, err := svc.Update(context.Background(), 7, 1, models.RoleSeller, &models.UpdateProductRequest{
			Video: newVideo,
		})

		require.NoError(t, err)
		assert.Len(t, product.Images, 2)
		assert.Equal(t, "shoptok/videos/nv", product.Video.PublicID)
	})
}

func TestProductService_Get(t *testing.T) {
	t.Run("increments views", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		product, err := svc.Get(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, 1, product.Views)
	})

	t.Run("view increment failure does not fail the read", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct(), viewsErr: errors.New("deadlock")}
		svc := NewProductService(repo, zap.NewNop())

		product, err := svc.Get(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, 0, product.Views)
	})

	t.Run("missing product", func(t *testing.T) {
		repo := &mockProductRepository{}
		svc := NewProductService(repo, zap.NewNop())

		_, err := svc.Get(context.Background(), 7)

		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	repo := &mockProductRepository{
		products: []models.Product{*storedProduct()},
		total:    45,
	}
	svc := NewProductService(repo, zap.NewNop())

	page, err := svc.List(context.Background(), ProductListOptions{Page: 0, Limit: -3})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Pages) // 45 items at the default limit of 20
	assert.Equal(t, 45, page.Total)
}

func TestProductService_ToggleLike(t *testing.T) {
	t.Run("like when not yet liked", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct(), liked: false, likeCount: 5}
		svc := NewProductService(repo, zap.NewNop())

		liked, count, err := svc.ToggleLike(context.Background(), 7, 3)

		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 5, count)
		assert.True(t, repo.addLikeCalled)
		assert.False(t, repo.rmLikeCalled)
	})

	t.Run("unlike when already liked", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct(), liked: true, likeCount: 4}
		svc := NewProductService(repo, zap.NewNop())

		liked, count, err := svc.ToggleLike(context.Background(), 7, 3)

		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 4, count)
		assert.True(t, repo.rmLikeCalled)
		assert.False(t, repo.addLikeCalled)
	})

	t.Run("missing product", func(t *testing.T) {
		repo := &mockProductRepository{}
		svc := NewProductService(repo, zap.NewNop())

		_, _, err := svc.ToggleLike(context.Background(), 7, 3)

		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestProductService_Delete(t *testing.T) {
	t.Run("non-owner rejected", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		err := svc.Delete(context.Background(), 7, 99, models.RoleSeller)

		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("owner can delete", func(t *testing.T) {
		repo := &mockProductRepository{product: storedProduct()}
		svc := NewProductService(repo, zap.NewNop())

		err := svc.Delete(context.Background(), 7, 1, models.RoleSeller)

		assert.NoError(t, err)
	})
}
