package service

import (
	"context"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
)

// SignupResult has a nil Session when the email still has to be verified.
type SignupResult struct {
	User    *domain.User
	Session *AuthResponseWithRefreshToken
}

// AuthService defines methods for authentication operations
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*SignupResult, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*AuthResponseWithRefreshToken, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponseWithRefreshToken, error)
	Logout(ctx context.Context, userID, accessToken, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)

	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token, kind string) (*AuthResponseWithRefreshToken, error)
	RecoverPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, userID, password string) error
}

// OAuthService runs the provider code flow and the PKCE exchange that
// hands the resulting session to the app.
type OAuthService interface {
	Authorize(ctx context.Context, provider, redirectTo, codeChallenge, challengeMethod string) (string, error)
	Callback(ctx context.Context, state, code, providerError string) (string, error)
	ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*AuthResponseWithRefreshToken, error)
}

// ProfileService owns the users/mothers/babies record set written by onboarding.
type ProfileService interface {
	GetUser(ctx context.Context, callerID, userID string) (*domain.User, error)
	UpsertUser(ctx context.Context, caller *domain.TokenClaims, userID string, req *dto.UpsertUserRequest) (*domain.User, error)
	CreateMother(ctx context.Context, callerID string, req *dto.CreateMotherRequest) (*domain.Mother, error)
	CreateBabies(ctx context.Context, callerID string, babies []dto.BabyInput) ([]*domain.Baby, error)
	OnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error)
}
