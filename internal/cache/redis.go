package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the Redis cache store.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const defaultRedisTimeout = 5 * time.Second
const redisKeyPrefix = "userhub:"

// deletePatternBatch bounds how many keys one DEL pipeline removes per SCAN page.
const deletePatternBatch = 256

// RedisStore implements Store on top of a go-redis client. All transport
// failures are wrapped with ErrUnavailable so repositories can fail open.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed Store. It eagerly pings the server so
// that misconfiguration is surfaced during application startup.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     strings.TrimSpace(cfg.Username),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	store := &RedisStore{client: redis.NewClient(opts)}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := store.client.Ping(ctx).Err(); err != nil {
		_ = store.client.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get retrieves the value associated with a key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Unavailable(err)
	}
	return value, true, nil
}

// Set stores a value with the supplied expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefixed(key), value, ttl).Err(); err != nil {
		return Unavailable(err)
	}
	return nil
}

// Delete removes one or more keys, ignoring missing keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, s.prefixed(key))
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return Unavailable(err)
	}
	return nil
}

// DeletePattern removes every key matching the glob pattern using SCAN to
// avoid blocking the server the way KEYS would.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, s.prefixed(pattern), deletePatternBatch).Iterator()

	batch := make([]string, 0, deletePatternBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.client.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= deletePatternBatch {
			if err := flush(); err != nil {
				return Unavailable(err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return Unavailable(err)
	}
	if err := flush(); err != nil {
		return Unavailable(err)
	}
	return nil
}

// Ping probes the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (s *RedisStore) prefixed(key string) string {
	if strings.HasPrefix(key, redisKeyPrefix) {
		return key
	}
	return redisKeyPrefix + key
}
