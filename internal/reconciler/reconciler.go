// Package reconciler removes orphaned media: assets that were uploaded
// but whose publication run died before the product record was written.
// Uploads are not transactional with the product write, so orphans are
// expected; the sweep is the cleanup half of that trade-off.
package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shoptok/backend/internal/mediastore"
	"github.com/shoptok/backend/internal/models"
	"go.uber.org/zap"
)

// firstSeenKeyPrefix namespaces the redis keys tracking when the sweep
// first observed an asset
const firstSeenKeyPrefix = "reconciler:first_seen:"

// ProductAssetChecker defines the interface for asset reference lookups
type ProductAssetChecker interface {
	// Method HasAssetReference reports whether any product references the
	// given media public ID.
	HasAssetReference(ctx context.Context, publicID string) (bool, error)
}

// Sweeper walks the media store folders and removes assets that are old
// enough and referenced by no product
type Sweeper struct {
	store       mediastore.Store
	products    ProductAssetChecker
	redisClient *redis.Client
	folders     []string
	gracePeriod time.Duration
	logger      *zap.Logger
}

// NewSweeper creates a sweeper over the given folders
func NewSweeper(
	store mediastore.Store,
	products ProductAssetChecker,
	redisClient *redis.Client,
	folders []string,
	gracePeriod time.Duration,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		store:       store,
		products:    products,
		redisClient: redisClient,
		folders:     folders,
		gracePeriod: gracePeriod,
		logger:      logger,
	}
}

// Sweep runs one pass over every configured folder. Errors on
// individual assets are logged and skipped so one bad object cannot
// stall the whole sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	var removed, kept int

	for _, folder := range s.folders {
		kind := kindForFolder(folder)

		objects, err := s.store.List(ctx, kind, folder)
		if err != nil {
			return fmt.Errorf("failed to list folder %s: %w", folder, err)
		}

		for _, obj := range objects {
			if err := ctx.Err(); err != nil {
				return err
			}

			ok, err := s.sweepAsset(ctx, kind, obj)
			if err != nil {
				s.logger.Warn("failed to sweep asset",
					zap.String("publicId", obj.PublicID),
					zap.Error(err),
				)
				continue
			}
			if ok {
				removed++
			} else {
				kept++
			}
		}
	}

	s.logger.Info("reconciliation sweep finished",
		zap.Int("removed", removed),
		zap.Int("kept", kept),
	)
	return nil
}

// sweepAsset decides the fate of one stored object and reports whether
// it was removed
func (s *Sweeper) sweepAsset(ctx context.Context, kind models.MediaKind, obj mediastore.StoredObject) (bool, error) {
	age, err := s.assetAge(ctx, obj)
	if err != nil {
		return false, err
	}
	if age < s.gracePeriod {
		// Too young to judge; an upload may still be mid-publication
		return false, nil
	}

	referenced, err := s.products.HasAssetReference(ctx, obj.PublicID)
	if err != nil {
		return false, err
	}
	if referenced {
		s.forgetFirstSeen(ctx, obj.PublicID)
		return false, nil
	}

	if err := s.store.Remove(ctx, kind, obj.PublicID); err != nil {
		return false, err
	}
	s.forgetFirstSeen(ctx, obj.PublicID)

	s.logger.Info("removed orphaned asset",
		zap.String("publicId", obj.PublicID),
		zap.String("kind", string(kind)),
		zap.Duration("age", age),
	)
	return true, nil
}

// assetAge returns how long the asset has existed. When the store does
// not report a creation time, the sweep tracks the first time it saw
// the asset in redis and ages it from there.
func (s *Sweeper) assetAge(ctx context.Context, obj mediastore.StoredObject) (time.Duration, error) {
	if !obj.StoredAt.IsZero() {
		return time.Since(obj.StoredAt), nil
	}

	key := firstSeenKeyPrefix + obj.PublicID
	now := time.Now().Unix()

	// SetNX records the first sighting; subsequent sweeps read it back
	if err := s.redisClient.SetNX(ctx, key, now, 0).Err(); err != nil {
		return 0, fmt.Errorf("failed to record first sighting: %w", err)
	}

	raw, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read first sighting: %w", err)
	}

	firstSeen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt first sighting value %q: %w", raw, err)
	}

	return time.Since(time.Unix(firstSeen, 0)), nil
}

// forgetFirstSeen drops the redis tracking key once the asset no longer
// needs watching
func (s *Sweeper) forgetFirstSeen(ctx context.Context, publicID string) {
	if err := s.redisClient.Del(ctx, firstSeenKeyPrefix+publicID).Err(); err != nil {
		s.logger.Warn("failed to drop first sighting key", zap.String("publicId", publicID), zap.Error(err))
	}
}

// kindForFolder infers the media kind a folder holds from its name
func kindForFolder(folder string) models.MediaKind {
	if strings.Contains(folder, "video") {
		return models.MediaKindVideo
	}
	return models.MediaKindImage
}
