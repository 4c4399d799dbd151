package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable marks any cache transport failure. Callers composing a
// repository on top of a Store must treat it as a miss and fall through to the
// durable store rather than surfacing it.
var ErrUnavailable = errors.New("cache: unavailable")

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// IsUnavailable reports whether err represents a cache transport failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Store represents a shared cache interface used across the application.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching the supplied glob pattern.
	// Pattern scans are O(total keys) on most backends; keep patterns coarse.
	DeletePattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
}
