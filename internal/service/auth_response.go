package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/repository"
	"github.com/prperemyshlev/kanah-health/internal/utils"
)

// AuthResponseWithRefreshToken contains auth response and refresh token
type AuthResponseWithRefreshToken struct {
	AuthResponse *dto.AuthResponse
	RefreshToken string
	ExpiresIn    int // refresh token lifetime in seconds
}

// sessionIssuer mints access/refresh pairs and records the refresh hash.
// Both password and OAuth logins end here.
type sessionIssuer struct {
	tokenRepo          repository.TokenRepository
	jwtManager         *utils.JWTManager
	refreshTokenExpiry time.Duration
}

func (s *sessionIssuer) issue(ctx context.Context, user *domain.User) (*AuthResponseWithRefreshToken, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.tokenRepo.Create(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.refreshTokenExpiry),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	expiresIn := s.jwtManager.GetAccessTokenExpiry()

	return &AuthResponseWithRefreshToken{
		AuthResponse: &dto.AuthResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    expiresIn,
			ExpiresAt:    time.Now().Add(time.Duration(expiresIn) * time.Second).Unix(),
			User:         userInfo(user),
		},
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.refreshTokenExpiry.Seconds()),
	}, nil
}

func userInfo(user *domain.User) dto.UserInfo {
	return dto.UserInfo{
		ID:            user.ID,
		Email:         user.Email,
		EmailVerified: user.IsEmailVerified,
	}
}

// hashToken hashes a token using SHA256
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
