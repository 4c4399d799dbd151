package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charlesng35/userhub/internal/models"
)

// ErrDecode marks a malformed cache payload. The cached repositories treat it
// exactly like a miss for the affected key.
var ErrDecode = errors.New("repository: cache payload decode")

// timestampLayout is lossless and locale-independent.
const timestampLayout = time.RFC3339Nano

// userPayload is the flat cache representation of a user. Timestamps are
// encoded as text so the payload survives any JSON implementation unchanged.
type userPayload struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	HashedPassword string `json:"hashed_password"`
	Role           string `json:"role"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// profilePayload is the flat cache representation of a user profile.
type profilePayload struct {
	UserID       string   `json:"user_id"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	Bio          string   `json:"bio"`
	AvatarURL    string   `json:"avatar_url"`
	Skills       []string `json:"skills"`
	Rating       float64  `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func userToPayload(user *models.User) userPayload {
	return userPayload{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FullName:       user.FullName,
		HashedPassword: user.HashedPassword,
		Role:           string(user.Role),
		IsActive:       user.IsActive,
		CreatedAt:      user.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:      user.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// encodeUser converts a well-formed user into cache bytes. It never fails for
// records produced by the durable repository.
func encodeUser(user *models.User) ([]byte, error) {
	return json.Marshal(userToPayload(user))
}

func decodeUser(data []byte) (*models.User, error) {
	var payload userPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return userFromPayload(payload)
}

func userFromPayload(payload userPayload) (*models.User, error) {
	if payload.ID == "" || payload.Username == "" || payload.Email == "" {
		return nil, fmt.Errorf("%w: missing identifier field", ErrDecode)
	}

	role := models.UserRole(payload.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrDecode, payload.Role)
	}

	createdAt, err := time.Parse(timestampLayout, payload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrDecode, err)
	}
	updatedAt, err := time.Parse(timestampLayout, payload.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at: %v", ErrDecode, err)
	}

	return &models.User{
		BaseModel: models.BaseModel{
			ID:        payload.ID,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		Username:       payload.Username,
		Email:          payload.Email,
		FullName:       payload.FullName,
		HashedPassword: payload.HashedPassword,
		Role:           role,
		IsActive:       payload.IsActive,
	}, nil
}

// encodeUserList serialises a derived view (list page or search result).
func encodeUserList(users []models.User) ([]byte, error) {
	payloads := make([]userPayload, 0, len(users))
	for i := range users {
		payloads = append(payloads, userToPayload(&users[i]))
	}
	return json.Marshal(payloads)
}

func decodeUserList(data []byte) ([]models.User, error) {
	var payloads []userPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	users := make([]models.User, 0, len(payloads))
	for _, payload := range payloads {
		user, err := userFromPayload(payload)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func encodeProfile(profile *models.UserProfile) ([]byte, error) {
	payload := profilePayload{
		UserID:       profile.UserID,
		Phone:        profile.Phone,
		Address:      profile.Address,
		Bio:          profile.Bio,
		AvatarURL:    profile.AvatarURL,
		Skills:       profile.Skills,
		Rating:       profile.Rating,
		ReviewsCount: profile.ReviewsCount,
		CreatedAt:    profile.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:    profile.UpdatedAt.UTC().Format(timestampLayout),
	}
	return json.Marshal(payload)
}

func decodeProfile(data []byte) (*models.UserProfile, error) {
	var payload profilePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrDecode)
	}

	createdAt, err := time.Parse(timestampLayout, payload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrDecode, err)
	}
	updatedAt, err := time.Parse(timestampLayout, payload.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at: %v", ErrDecode, err)
	}

	return &models.UserProfile{
		UserID:       payload.UserID,
		Phone:        payload.Phone,
		Address:      payload.Address,
		Bio:          payload.Bio,
		AvatarURL:    payload.AvatarURL,
		Skills:       payload.Skills,
		Rating:       payload.Rating,
		ReviewsCount: payload.ReviewsCount,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
