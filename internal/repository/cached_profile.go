package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/userhub/internal/cache"
	"github.com/charlesng35/userhub/internal/models"
	"github.com/charlesng35/userhub/pkg/logger"
	"github.com/charlesng35/userhub/pkg/metrics"
)

// CachedUserProfileRepository decorates a durable UserProfileRepository with
// read-through and write-through caching. Profiles are keyed only by the
// owning user's ID and have no derived views, so every successful write simply
// repopulates (or removes) that single key.
type CachedUserProfileRepository struct {
	base  UserProfileRepository
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedUserProfileRepository wraps base with a caching layer backed by store.
func NewCachedUserProfileRepository(base UserProfileRepository, store cache.Store, ttl time.Duration) (*CachedUserProfileRepository, error) {
	if base == nil {
		return nil, errors.New("cached profile repository: base repository is required")
	}
	if store == nil {
		return nil, errors.New("cached profile repository: cache store is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedUserProfileRepository{
		base:  base,
		store: store,
		ttl:   ttl,
		log:   logger.WithModule("repository.cache"),
	}, nil
}

// Create writes through to the durable repository and primes the cache.
func (r *CachedUserProfileRepository) Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	created, err := r.base.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	r.populate(ctx, created)
	return created, nil
}

// GetByUserID serves the profile from cache when possible.
func (r *CachedUserProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := profileKey(userID)

	payload, found, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	case found:
		profile, decodeErr := decodeProfile(payload)
		if decodeErr == nil {
			metrics.CacheHits.WithLabelValues("profile", "user_id").Inc()
			return profile, nil
		}
		r.log.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(decodeErr))
	}

	metrics.CacheMisses.WithLabelValues("profile", "user_id").Inc()

	profile, err := r.base.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.populate(ctx, profile)
	return profile, nil
}

// Update writes through to the durable repository and refreshes the cache
// entry with the post-update state.
func (r *CachedUserProfileRepository) Update(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	updated, err := r.base.Update(ctx, profile)
	if err != nil {
		return nil, err
	}

	metrics.CacheInvalidations.WithLabelValues("profile", "update").Inc()
	r.populate(ctx, updated)
	return updated, nil
}

// Delete removes the profile from the durable repository, then from the cache.
func (r *CachedUserProfileRepository) Delete(ctx context.Context, userID string) error {
	if err := r.base.Delete(ctx, userID); err != nil {
		return err
	}

	metrics.CacheInvalidations.WithLabelValues("profile", "delete").Inc()
	if err := r.store.Delete(ctx, profileKey(userID)); err != nil {
		r.log.Debug("cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

func (r *CachedUserProfileRepository) populate(ctx context.Context, profile *models.UserProfile) {
	encoded, err := encodeProfile(profile)
	if err != nil {
		r.log.Warn("encode profile for cache", zap.String("user_id", profile.UserID), zap.Error(err))
		return
	}
	if err := r.store.Set(ctx, profileKey(profile.UserID), encoded, r.ttl); err != nil {
		metrics.CachePopulateFailures.WithLabelValues("profile").Inc()
		r.log.Debug("cache population failed", zap.String("user_id", profile.UserID), zap.Error(err))
	}
}
