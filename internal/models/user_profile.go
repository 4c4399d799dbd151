package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile carries extended user information. Profiles are keyed by the
// owning user's ID and have no natural keys of their own.
type UserProfile struct {
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`

	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`

	Skills       datatypes.JSONSlice[string] `json:"skills"`
	Rating       float64                     `gorm:"default:0" json:"rating"`
	ReviewsCount int                         `gorm:"default:0" json:"reviews_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
