package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a system user profile
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Email    string `json:"email" db:"email"`
	FullName string `json:"fullName" db:"full_name"`
	Phone    string `json:"phone,omitempty" db:"phone"`

	PasswordHash string `json:"-" db:"password_hash"`

	AvatarURL string `json:"avatarUrl,omitempty" db:"avatar_url"`

	IsActive bool `json:"isActive" db:"is_active"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	Settings Variables `json:"settings" db:"settings"`
}

// APIKey represents an organization API key
type APIKey struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	CreatedBy      uuid.UUID `json:"createdBy" db:"created_by"`

	Name    string `json:"name" db:"name"`
	KeyHash string `json:"-" db:"key_hash"`

	Permissions StringArray `json:"permissions" db:"permissions"`

	IsActive   bool       `json:"isActive" db:"is_active"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
}
