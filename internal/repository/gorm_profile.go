package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/userhub/internal/models"
)

// GormUserProfileRepository persists user profiles in the primary SQL database.
type GormUserProfileRepository struct {
	db *gorm.DB
}

// NewGormUserProfileRepository constructs the durable profile repository.
func NewGormUserProfileRepository(db *gorm.DB) (*GormUserProfileRepository, error) {
	if db == nil {
		return nil, errors.New("profile repository: db is required")
	}
	return &GormUserProfileRepository{db: db}, nil
}

// Create inserts a new profile for a user.
func (r *GormUserProfileRepository) Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, fmt.Errorf("profile repository: create: %w", err)
	}
	return profile, nil
}

// GetByUserID loads the profile owned by the supplied user.
func (r *GormUserProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile repository: get: %w", err)
	}
	return &profile, nil
}

// Update persists the supplied profile state. The profile must already exist.
func (r *GormUserProfileRepository) Update(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	var existing models.UserProfile
	err := r.db.WithContext(ctx).First(&existing, "user_id = ?", profile.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile repository: load for update: %w", err)
	}

	profile.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("profile repository: update: %w", err)
	}
	return profile, nil
}

// Delete removes the profile owned by the supplied user.
func (r *GormUserProfileRepository) Delete(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Delete(&models.UserProfile{}, "user_id = ?", userID)
	if result.Error != nil {
		return fmt.Errorf("profile repository: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
