package handler

import (
	"context"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*service.SignupResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignupResult), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*service.AuthResponseWithRefreshToken, error) {
	return session(m.Called(ctx, req))
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.AuthResponseWithRefreshToken, error) {
	return session(m.Called(ctx, refreshToken))
}

func (m *mockAuthService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	return m.Called(ctx, userID, accessToken, refreshToken).Error(0)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenClaims), args.Error(1)
}

func (m *mockAuthService) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, token, kind string) (*service.AuthResponseWithRefreshToken, error) {
	return session(m.Called(ctx, token, kind))
}

func (m *mockAuthService) RecoverPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthService) UpdatePassword(ctx context.Context, userID, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

type mockOAuthService struct{ mock.Mock }

func (m *mockOAuthService) Authorize(ctx context.Context, provider, redirectTo, codeChallenge, challengeMethod string) (string, error) {
	args := m.Called(ctx, provider, redirectTo, codeChallenge, challengeMethod)
	return args.String(0), args.Error(1)
}

func (m *mockOAuthService) Callback(ctx context.Context, state, code, providerError string) (string, error) {
	args := m.Called(ctx, state, code, providerError)
	return args.String(0), args.Error(1)
}

func (m *mockOAuthService) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*service.AuthResponseWithRefreshToken, error) {
	return session(m.Called(ctx, authCode, codeVerifier))
}

type mockProfileService struct{ mock.Mock }

func (m *mockProfileService) GetUser(ctx context.Context, callerID, userID string) (*domain.User, error) {
	args := m.Called(ctx, callerID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockProfileService) UpsertUser(ctx context.Context, caller *domain.TokenClaims, userID string, req *dto.UpsertUserRequest) (*domain.User, error) {
	args := m.Called(ctx, caller, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockProfileService) CreateMother(ctx context.Context, callerID string, req *dto.CreateMotherRequest) (*domain.Mother, error) {
	args := m.Called(ctx, callerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mother), args.Error(1)
}

func (m *mockProfileService) CreateBabies(ctx context.Context, callerID string, babies []dto.BabyInput) ([]*domain.Baby, error) {
	args := m.Called(ctx, callerID, babies)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Baby), args.Error(1)
}

func (m *mockProfileService) OnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingStatus), args.Error(1)
}

func session(args mock.Arguments) (*service.AuthResponseWithRefreshToken, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResponseWithRefreshToken), args.Error(1)
}
