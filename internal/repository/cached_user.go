package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/userhub/internal/cache"
	"github.com/charlesng35/userhub/internal/models"
	"github.com/charlesng35/userhub/pkg/logger"
	"github.com/charlesng35/userhub/pkg/metrics"
)

// DefaultCacheTTL bounds staleness when no explicit invalidation happens.
const DefaultCacheTTL = time.Hour

// CachedUserRepository decorates a durable UserRepository with read-through
// and write-through caching.
//
// Reads consult the cache first and fall back to the durable repository on a
// miss, a malformed payload, or a cache outage; single-record fetches then
// populate every index key (id, username, email) so the index set stays
// coherent. Writes go to the durable repository first, then reconcile the
// cache: stale index keys derived from the pre-write record state are removed
// and derived views (list pages, search results) are invalidated wholesale.
//
// Cache failures never fail an operation; the durable repository remains the
// single source of truth. The multi-key reconciliation is not atomic, so a
// concurrent reader repopulating from a pre-write snapshot can transiently
// resurrect stale index entries until the next write or TTL expiry.
type CachedUserRepository struct {
	base  UserRepository
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedUserRepository wraps base with a caching layer backed by store.
// A non-positive ttl selects DefaultCacheTTL.
func NewCachedUserRepository(base UserRepository, store cache.Store, ttl time.Duration) (*CachedUserRepository, error) {
	if base == nil {
		return nil, errors.New("cached user repository: base repository is required")
	}
	if store == nil {
		return nil, errors.New("cached user repository: cache store is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedUserRepository{
		base:  base,
		store: store,
		ttl:   ttl,
		log:   logger.WithModule("repository.cache"),
	}, nil
}

// Create writes through to the durable repository, then primes the index keys
// and clears every derived view the new user might appear in.
func (r *CachedUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created, err := r.base.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	r.populate(ctx, created)
	r.invalidateDerivedViews(ctx, "create")

	return created, nil
}

// GetByID serves the user from cache when possible.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.readThrough(ctx, userIDKey(id), "id", func(ctx context.Context) (*models.User, error) {
		return r.base.GetByID(ctx, id)
	})
}

// GetByUsername serves the user from cache when possible.
func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.readThrough(ctx, userUsernameKey(username), "username", func(ctx context.Context) (*models.User, error) {
		return r.base.GetByUsername(ctx, username)
	})
}

// GetByEmail serves the user from cache when possible.
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.readThrough(ctx, userEmailKey(email), "email", func(ctx context.Context) (*models.User, error) {
		return r.base.GetByEmail(ctx, email)
	})
}

// SearchByName caches the whole result set under the normalised search term.
func (r *CachedUserRepository) SearchByName(ctx context.Context, name string) ([]models.User, error) {
	return r.readThroughList(ctx, usersSearchKey(name), "search", func(ctx context.Context) ([]models.User, error) {
		return r.base.SearchByName(ctx, name)
	})
}

// GetAll caches each requested page under its limit/offset pair.
func (r *CachedUserRepository) GetAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	return r.readThroughList(ctx, usersListKey(limit, offset), "list", func(ctx context.Context) ([]models.User, error) {
		return r.base.GetAll(ctx, limit, offset)
	})
}

// Update snapshots the pre-update record from the durable repository so index
// keys derived from the old natural keys can be removed, writes the update
// through, then invalidates and repopulates.
func (r *CachedUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	// Must come from the durable store: the cache may already be stale and
	// would then miss a renamed username or email.
	previous, err := r.base.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	updated, err := r.base.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	r.invalidateIndexKeys(ctx, previous, "update")
	r.invalidateDerivedViews(ctx, "update")
	r.populate(ctx, updated)

	return updated, nil
}

// Delete snapshots the record to learn its natural keys, deletes it from the
// durable repository, then drops every cache entry that referenced it.
func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	previous, err := r.base.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.base.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidateIndexKeys(ctx, previous, "delete")
	r.invalidateDerivedViews(ctx, "delete")

	return nil
}

// readThrough implements the single-record read path. Any cache failure is
// treated as a miss; durable errors (including not-found) propagate untouched.
func (r *CachedUserRepository) readThrough(ctx context.Context, key, dimension string, fetch func(context.Context) (*models.User, error)) (*models.User, error) {
	payload, found, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	case found:
		user, decodeErr := decodeUser(payload)
		if decodeErr == nil {
			metrics.CacheHits.WithLabelValues("user", dimension).Inc()
			return user, nil
		}
		r.log.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(decodeErr))
	}

	metrics.CacheMisses.WithLabelValues("user", dimension).Inc()

	user, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	r.populate(ctx, user)
	return user, nil
}

// readThroughList implements the derived-view read path. Empty result sets are
// not cached (no negative caching).
func (r *CachedUserRepository) readThroughList(ctx context.Context, key, dimension string, fetch func(context.Context) ([]models.User, error)) ([]models.User, error) {
	payload, found, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	case found:
		users, decodeErr := decodeUserList(payload)
		if decodeErr == nil {
			metrics.CacheHits.WithLabelValues("user", dimension).Inc()
			return users, nil
		}
		r.log.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(decodeErr))
	}

	metrics.CacheMisses.WithLabelValues("user", dimension).Inc()

	users, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if len(users) > 0 {
		encoded, encodeErr := encodeUserList(users)
		if encodeErr != nil {
			r.log.Warn("encode derived view", zap.String("key", key), zap.Error(encodeErr))
			return users, nil
		}
		if setErr := r.store.Set(ctx, key, encoded, r.ttl); setErr != nil {
			metrics.CachePopulateFailures.WithLabelValues("user").Inc()
			r.log.Debug("cache derived view write failed", zap.String("key", key), zap.Error(setErr))
		}
	}

	return users, nil
}

// populate writes the user under every index key. A single fetch is enough to
// prime id, username, and email lookups; leaving any subset stale would break
// the index-set invariant. Failures are logged and dropped.
func (r *CachedUserRepository) populate(ctx context.Context, user *models.User) {
	encoded, err := encodeUser(user)
	if err != nil {
		r.log.Warn("encode user for cache", zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	var errs error
	for _, key := range indexKeys(user) {
		errs = multierr.Append(errs, r.store.Set(ctx, key, encoded, r.ttl))
	}
	if errs != nil {
		metrics.CachePopulateFailures.WithLabelValues("user").Inc()
		r.log.Debug("cache population failed", zap.String("user_id", user.ID), zap.Error(errs))
	}
}

// invalidateIndexKeys removes the index set derived from a known record state.
func (r *CachedUserRepository) invalidateIndexKeys(ctx context.Context, user *models.User, reason string) {
	metrics.CacheInvalidations.WithLabelValues("user", reason).Inc()
	if err := r.store.Delete(ctx, indexKeys(user)...); err != nil {
		r.log.Debug("cache index invalidation failed",
			zap.String("user_id", user.ID),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

// invalidateDerivedViews clears every cached list page and search result. The
// sweep is conservative: any write can surface in any derived view.
func (r *CachedUserRepository) invalidateDerivedViews(ctx context.Context, reason string) {
	err := multierr.Combine(
		r.store.DeletePattern(ctx, usersListPattern),
		r.store.DeletePattern(ctx, usersSearchPattern),
	)
	if err != nil {
		r.log.Debug("cache derived view invalidation failed",
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func indexKeys(user *models.User) []string {
	return []string{
		userIDKey(user.ID),
		userUsernameKey(user.Username),
		userEmailKey(user.Email),
	}
}
