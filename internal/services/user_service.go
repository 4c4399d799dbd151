package services

import (
	"context"
	"errors"
	"strings"

	"github.com/charlesng35/userhub/internal/models"
	"github.com/charlesng35/userhub/internal/repository"
	apperrors "github.com/charlesng35/userhub/pkg/errors"
)

// CreateUserInput describes the fields accepted when creating a user. The
// password arrives already hashed; hashing is owned by the auth edge.
type CreateUserInput struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	Role           models.UserRole
	IsActive       *bool
}

// UpdateUserInput enumerates mutable user attributes.
type UpdateUserInput struct {
	Username *string
	Email    *string
	FullName *string
	Role     *models.UserRole
	IsActive *bool
}

// UserService exposes user and profile use cases on top of the repository
// contract. It is agnostic to whether the repositories cache.
type UserService struct {
	users    repository.UserRepository
	profiles repository.UserProfileRepository
}

// NewUserService constructs a UserService instance.
func NewUserService(users repository.UserRepository, profiles repository.UserProfileRepository) (*UserService, error) {
	if users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if profiles == nil {
		return nil, errors.New("user service: profile repository is required")
	}
	return &UserService{users: users, profiles: profiles}, nil
}

// Create provisions a new user after normalising its natural keys.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, apperrors.NewBadRequest("username is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.HashedPassword) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewBadRequest("unknown role")
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		FullName:       strings.TrimSpace(input.FullName),
		HashedPassword: input.HashedPassword,
		Role:           role,
		IsActive:       true,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	return s.users.Create(ctx, user)
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	return s.users.GetByID(ctx, id)
}

// GetByUsername loads a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewBadRequest("username is required")
	}
	return s.users.GetByUsername(ctx, username)
}

// GetByEmail loads a user by email. Emails are stored lower-cased, so the
// lookup value is folded before the repository (and its cache keys) see it.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	return s.users.GetByEmail(ctx, email)
}

// SearchByName finds users whose full name contains the given term.
func (s *UserService) SearchByName(ctx context.Context, name string) ([]models.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewBadRequest("search term is required")
	}
	return s.users.SearchByName(ctx, name)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.GetAll(ctx, limit, offset)
}

// Update applies the supplied changes to an existing user.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if name := strings.TrimSpace(*input.Username); name != "" {
			user.Username = name
		}
	}
	if input.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*input.Email)); email != "" {
			user.Email = email
		}
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewBadRequest("unknown role")
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	return s.users.Update(ctx, user)
}

// Delete removes a user and, when present, its profile.
func (s *UserService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.NewBadRequest("user id is required")
	}

	if err := s.profiles.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return err
	}
	return s.users.Delete(ctx, id)
}

// CreateProfile attaches a profile to an existing user.
func (s *UserService) CreateProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return nil, apperrors.NewBadRequest("profile owner is required")
	}

	if _, err := s.users.GetByID(ctx, profile.UserID); err != nil {
		return nil, err
	}
	return s.profiles.Create(ctx, profile)
}

// GetProfile loads the profile owned by the supplied user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	return s.profiles.GetByUserID(ctx, userID)
}

// UpdateProfile persists profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return nil, apperrors.NewBadRequest("profile owner is required")
	}
	return s.profiles.Update(ctx, profile)
}

// DeleteProfile removes the profile owned by the supplied user.
func (s *UserService) DeleteProfile(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.NewBadRequest("user id is required")
	}
	return s.profiles.Delete(ctx, userID)
}
