package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shoptok/backend/internal/mediastore"
	"github.com/shoptok/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockStore is a mock implementation of mediastore.Store
type mockStore struct {
	objects map[string][]mediastore.StoredObject // keyed by folder
	removed []string
}

func (m *mockStore) Store(ctx context.Context, data []byte, kind models.MediaKind, folder string) (models.MediaAsset, error) {
	return models.MediaAsset{}, nil
}

func (m *mockStore) ThumbnailURL(publicID string) string {
	return ""
}

func (m *mockStore) List(ctx context.Context, kind models.MediaKind, folder string) ([]mediastore.StoredObject, error) {
	return m.objects[folder], nil
}

func (m *mockStore) Remove(ctx context.Context, kind models.MediaKind, publicID string) error {
	m.removed = append(m.removed, publicID)
	return nil
}

// mockAssetChecker is a mock implementation of ProductAssetChecker
type mockAssetChecker struct {
	referenced map[string]bool
}

func (m *mockAssetChecker) HasAssetReference(ctx context.Context, publicID string) (bool, error) {
	return m.referenced[publicID], nil
}

// testRedis returns a client pointing nowhere; the sweep only needs
// redis for assets without a stored creation time, and these tests
// always set one
func testRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "localhost:0"})
}

func TestSweeper_Sweep(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now().Add(-time.Hour)

	store := &mockStore{
		objects: map[string][]mediastore.StoredObject{
			"shoptok/products": {
				{PublicID: "shoptok/products/referenced", StoredAt: old},
				{PublicID: "shoptok/products/orphan", StoredAt: old},
				{PublicID: "shoptok/products/young-orphan", StoredAt: fresh},
			},
			"shoptok/videos": {
				{PublicID: "shoptok/videos/orphan", StoredAt: old},
			},
		},
	}
	checker := &mockAssetChecker{
		referenced: map[string]bool{
			"shoptok/products/referenced": true,
		},
	}

	sweeper := NewSweeper(
		store, checker, testRedis(),
		[]string{"shoptok/products", "shoptok/videos"},
		24*time.Hour,
		zap.NewNop(),
	)

	err := sweeper.Sweep(context.Background())

	require.NoError(t, err)

	// Only aged, unreferenced assets are removed. The referenced asset
	// stays, and the young orphan gets the benefit of the grace period.
	assert.ElementsMatch(t, []string{
		"shoptok/products/orphan",
		"shoptok/videos/orphan",
	}, store.removed)
}

func TestSweeper_SweepEmptyFolders(t *testing.T) {
	store := &mockStore{objects: map[string][]mediastore.StoredObject{}}
	checker := &mockAssetChecker{}

	sweeper := NewSweeper(
		store, checker, testRedis(),
		[]string{"shoptok/products"},
		24*time.Hour,
		zap.NewNop(),
	)

	err := sweeper.Sweep(context.Background())

	require.NoError(t, err)
	assert.Empty(t, store.removed)
}

func TestKindForFolder(t *testing.T) {
	assert.Equal(t, models.MediaKindImage, kindForFolder("shoptok/products"))
	assert.Equal(t, models.MediaKindVideo, kindForFolder("shoptok/videos"))
}
