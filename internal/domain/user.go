package domain

import "time"

// UserType classifies accounts. Onboarding only ever creates mothers.
type UserType string

const (
	UserTypeMother       UserType = "mother"
	UserTypeHealthWorker UserType = "health_worker"
	UserTypeAdmin        UserType = "admin"
)

// User represents a user in the system
type User struct {
	ID              string     `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	Phone           *string    `json:"phone" db:"phone"`
	FullName        *string    `json:"full_name" db:"full_name"`
	UserType        UserType   `json:"user_type" db:"user_type"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt     *time.Time `json:"last_login_at" db:"last_login_at"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	IsEmailVerified bool       `json:"email_verified" db:"email_verified"`
}

// HasPassword is false for accounts created through an OAuth provider.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// RefreshToken represents a refresh token in the system
type RefreshToken struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	TokenHash  string    `json:"-" db:"token_hash"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	DeviceInfo *string   `json:"device_info" db:"device_info"`
	IPAddress  *string   `json:"ip_address" db:"ip_address"`
}

// OAuthProvider links a user to an external identity.
type OAuthProvider struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Provider       string    `json:"provider" db:"provider"` // google
	ProviderUserID string    `json:"provider_user_id" db:"provider_user_id"`
	Email          *string   `json:"email" db:"email"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
