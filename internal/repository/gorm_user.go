package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/userhub/internal/models"
)

// GormUserRepository persists users in the primary SQL database. It is the
// source of truth beneath the cached repository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository constructs the durable user repository.
func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	if db == nil {
		return nil, errors.New("user repository: db is required")
	}
	return &GormUserRepository{db: db}, nil
}

// Create inserts a new user record.
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("user repository: create: %w", err)
	}
	return user, nil
}

// GetByID loads a user by primary identifier.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getByField(ctx, "id", id)
}

// GetByUsername loads a user by username. The value is matched verbatim.
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getByField(ctx, "username", username)
}

// GetByEmail loads a user by email. The value is matched verbatim.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByField(ctx, "email", email)
}

func (r *GormUserRepository) getByField(ctx context.Context, field, value string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, field+" = ?", value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user repository: get by %s: %w", field, err)
	}
	return &user, nil
}

// SearchByName performs a case-insensitive substring search over full names.
func (r *GormUserRepository) SearchByName(ctx context.Context, name string) ([]models.User, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(full_name) LIKE ?", pattern).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user repository: search by name: %w", err)
	}
	return users, nil
}

// Update persists the supplied record state. The record must already exist.
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	var existing models.User
	err := r.db.WithContext(ctx).First(&existing, "id = ?", user.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user repository: load for update: %w", err)
	}

	user.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("user repository: update: %w", err)
	}
	return user, nil
}

// Delete removes a user by ID.
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("user repository: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetAll returns users ordered by creation time, newest first.
func (r *GormUserRepository) GetAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user repository: list: %w", err)
	}
	return users, nil
}
