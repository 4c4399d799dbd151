package repository

import (
	"context"
	"net/http"

	"github.com/charlesng35/userhub/internal/models"
	apperrors "github.com/charlesng35/userhub/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrUserExists indicates a username or email collision on create/update.
	ErrUserExists = apperrors.New("USER_EXISTS", "Username or email already exists", http.StatusConflict)
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = apperrors.New("PROFILE_NOT_FOUND", "User profile not found", http.StatusNotFound)
)

// UserRepository is the full contract for user persistence. The cached and
// durable implementations are interchangeable; callers never know whether a
// result was served from cache.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SearchByName(ctx context.Context, name string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, limit, offset int) ([]models.User, error)
}

// UserProfileRepository is the persistence contract for user profiles,
// keyed by the owning user's ID.
type UserProfileRepository interface {
	Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	Update(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
	Delete(ctx context.Context, userID string) error
}
