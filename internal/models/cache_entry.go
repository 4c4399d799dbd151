package models

import "time"

// CacheEntry backs the database cache store for deployments without Redis.
// A zero ExpiresAt means the entry never expires; expired rows are removed
// lazily on read.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
