package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `json:"id"`
	FirstName         *string   `json:"firstname,omitempty"`
	LastName          *string   `json:"lastname,omitempty"`
	Email             string    `json:"email"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	IsDeleted         bool      `json:"is_deleted"`
	AuthProvider      string    `json:"auth_provider,omitempty"`
	IsVerified        bool      `json:"is_verified"`
	PreferredLanguage *string   `json:"preferred_language,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type UpdateLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=en fr"`
}

// RegisterPushTokenRequest registers one device token for the logged-in user.
// A user may hold several tokens (one per installed device); stale tokens are
// tolerated and cleaned up when the push provider rejects them.
type RegisterPushTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android web"`
}

type PushToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Platform  *string   `json:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
