package dto

import "github.com/prperemyshlev/kanah-health/internal/domain"

// SignupRequest represents a registration request
type SignupRequest struct {
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	Data     SignupMetadata `json:"data"`
}

// SignupMetadata is optional profile data captured on the signup screen.
type SignupMetadata struct {
	FullName    string `json:"full_name,omitempty" binding:"omitempty,max=200"`
	PhoneNumber string `json:"phone_number,omitempty" binding:"omitempty,ke_phone"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// EmailRequest is used by resend-verification and password recovery.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RefreshRequest carries a refresh token when no cookie is available.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PKCEExchangeRequest trades a one-time auth code for a session.
type PKCEExchangeRequest struct {
	AuthCode     string `json:"auth_code" binding:"required"`
	CodeVerifier string `json:"code_verifier" binding:"required,min=43,max=128"`
}

// UpdatePasswordRequest sets a new password for the authenticated user.
type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// UpsertUserRequest writes the caller's profile row.
type UpsertUserRequest struct {
	Email         string  `json:"email" binding:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" binding:"omitempty,ke_phone"`
	FullName      *string `json:"full_name,omitempty" binding:"omitempty,min=1,max=200"`
	UserType      string  `json:"user_type,omitempty" binding:"omitempty,oneof=mother health_worker admin"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
}

// CreateMotherRequest inserts (or replaces) the caller's mother profile.
type CreateMotherRequest struct {
	UserID             string       `json:"user_id" binding:"required"`
	BirthType          string       `json:"birth_type" binding:"required,oneof=vaginal c_section"`
	LanguagePreference string       `json:"language_preference,omitempty" binding:"omitempty,oneof=english swahili"`
	SubscriptionStatus string       `json:"subscription_status,omitempty" binding:"omitempty,oneof=free premium"`
	DOB                *domain.Date `json:"dob,omitempty"`
	Location           *string      `json:"location,omitempty" binding:"omitempty,max=200"`
}

// BabyInput is one element of the babies insert payload.
type BabyInput struct {
	MotherID   string      `json:"mother_id" binding:"required"`
	BirthDate  domain.Date `json:"birth_date"`
	BabyNumber int         `json:"baby_number" binding:"required,min=1,max=3"`
}

// AuthResponse is a session: tokens plus the user they belong to.
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         UserInfo `json:"user"`
}

// SignupResponse has a nil Session when the email must be verified first.
type SignupResponse struct {
	User    UserInfo      `json:"user"`
	Session *AuthResponse `json:"session"`
}

// AuthorizeResponse holds the provider URL the browser should open.
type AuthorizeResponse struct {
	URL string `json:"url"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// UserResponse represents a user response
type UserResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	FullName      *string `json:"full_name"`
	UserType      string  `json:"user_type"`
	EmailVerified bool    `json:"email_verified"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	LastLoginAt   *string `json:"last_login_at"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
