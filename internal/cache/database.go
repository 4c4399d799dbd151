package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/userhub/internal/models"
)

// DatabaseStore implements the cache Store interface using the primary SQL
// database. It exists so deployments without Redis still get read-through
// caching of repository lookups, at reduced (but non-zero) benefit.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

// Get retrieves a value by key, respecting expiry.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, Unavailable(errors.New("database store not initialised"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Unavailable(err)
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Set upserts the value for a given key with expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return Unavailable(errors.New("database store not initialised"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	expiry := time.Time{}
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
	if err != nil {
		return Unavailable(err)
	}
	return nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return Unavailable(errors.New("database store not initialised"))
	}
	if len(keys) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	err := s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.CacheEntry{}).Error
	if err != nil {
		return Unavailable(err)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern, translated to a
// SQL LIKE expression.
func (s *DatabaseStore) DeletePattern(ctx context.Context, pattern string) error {
	if s == nil {
		return Unavailable(errors.New("database store not initialised"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	err := s.db.WithContext(ctx).
		Where("key LIKE ? ESCAPE '\\'", globToLike(pattern)).
		Delete(&models.CacheEntry{}).Error
	if err != nil {
		return Unavailable(err)
	}
	return nil
}

// Ping verifies the underlying database connection is alive.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	if s == nil {
		return Unavailable(errors.New("database store not initialised"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return Unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Unavailable(err)
	}
	return nil
}

// globToLike converts a redis-style glob into a SQL LIKE pattern, escaping
// LIKE metacharacters present in the literal portion of the key.
func globToLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
