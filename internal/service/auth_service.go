package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/mailer"
	"github.com/prperemyshlev/kanah-health/internal/repository"
	"github.com/prperemyshlev/kanah-health/internal/utils"
	"go.uber.org/zap"
)

// Kinds accepted by VerifyEmail.
const (
	VerifySignup   = "signup"
	VerifyRecovery = "recovery"
)

// AuthOptions carries the tunables of AuthService.
type AuthOptions struct {
	BCryptCost               int
	AccessTokenExpiry        time.Duration
	RefreshTokenExpiry       time.Duration
	RequireEmailVerification bool
	VerificationTokenExpiry  time.Duration
	RecoveryTokenExpiry      time.Duration
	// PublicURL is where links in emails point, e.g. https://api.kanah.health
	PublicURL string
}

type userToken struct {
	UserID string `json:"user_id"`
}

// authService implements AuthService interface
type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *utils.JWTManager
	blacklist  *TokenBlacklistService
	oneTime    *OneTimeStore
	mailer     mailer.Mailer
	sessions   *sessionIssuer
	metrics    *Metrics
	logger     *zap.Logger
	opts       AuthOptions
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *utils.JWTManager,
	blacklist *TokenBlacklistService,
	oneTime *OneTimeStore,
	mail mailer.Mailer,
	metrics *Metrics,
	logger *zap.Logger,
	opts AuthOptions,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		oneTime:    oneTime,
		mailer:     mail,
		sessions: &sessionIssuer{
			tokenRepo:          tokenRepo,
			jwtManager:         jwtManager,
			refreshTokenExpiry: opts.RefreshTokenExpiry,
		},
		metrics: metrics,
		logger:  logger,
		opts:    opts,
	}
}

// Signup registers a new mother account. With email verification on, no
// session is returned and a confirmation link is mailed instead.
func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*SignupResult, error) {
	email := utils.SanitizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, utils.MinPasswordLength)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.opts.BCryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:           email,
		PasswordHash:    passwordHash,
		UserType:        domain.UserTypeMother,
		IsActive:        true,
		IsEmailVerified: !s.opts.RequireEmailVerification,
	}
	if req.Data.FullName != "" {
		user.FullName = &req.Data.FullName
	}
	if req.Data.PhoneNumber != "" {
		user.Phone = &req.Data.PhoneNumber
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.metrics.Signup(ctx, "password")

	if s.opts.RequireEmailVerification {
		if err := s.sendLink(ctx, user, VerifySignup); err != nil {
			// The account exists; the user can ask for another link.
			s.logger.Error("Failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
		}
		return &SignupResult{User: user}, nil
	}

	session, err := s.sessions.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SignupResult{User: user, Session: session}, nil
}

// Login authenticates a user
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*AuthResponseWithRefreshToken, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.Login(ctx, "password", false)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.metrics.Login(ctx, "password", false)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	if s.opts.RequireEmailVerification && !user.IsEmailVerified {
		s.metrics.Login(ctx, "password", false)
		return nil, ErrEmailNotConfirmed
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.metrics.Login(ctx, "password", true)

	return s.sessions.issue(ctx, user)
}

// RefreshToken rotates a refresh token: the old one is revoked and a new pair issued
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponseWithRefreshToken, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	tokenHash := hashToken(refreshToken)

	dbToken, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if time.Now().After(dbToken.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	revoked, err := s.blacklist.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	s.revokeRefreshToken(ctx, refreshToken, tokenHash)

	return s.sessions.issue(ctx, user)
}

// Logout revokes the presented access token and, when it belongs to the
// user, the refresh token.
func (s *authService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if accessToken != "" {
		ttl := s.opts.AccessTokenExpiry
		if claims, err := s.jwtManager.ValidateToken(accessToken); err == nil {
			ttl = claims.TTL(time.Now())
		}
		if ttl > 0 {
			if err := s.blacklist.AddToken(ctx, accessToken, ttl); err != nil {
				return err
			}
		}
	}

	if refreshToken == "" {
		return nil
	}

	tokenHash := hashToken(refreshToken)
	dbToken, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err == nil && dbToken.UserID == userID {
		s.revokeRefreshToken(ctx, refreshToken, tokenHash)
	}

	return nil
}

func (s *authService) revokeRefreshToken(ctx context.Context, refreshToken, tokenHash string) {
	if err := s.blacklist.AddToken(ctx, refreshToken, s.opts.RefreshTokenExpiry); err != nil {
		s.logger.Warn("Failed to blacklist refresh token", zap.Error(err))
	}
	if err := s.tokenRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		s.logger.Warn("Failed to delete refresh token", zap.Error(err))
	}
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return UserResponse(user), nil
}

// ValidateToken validates an access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	revoked, err := s.blacklist.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

// ResendVerification mails a fresh confirmation link. Unknown and already
// verified addresses succeed silently so the endpoint cannot be used to
// probe for accounts.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsEmailVerified {
		return nil
	}

	return s.sendLink(ctx, user, VerifySignup)
}

// VerifyEmail consumes a link token. Signup links confirm the address;
// both kinds log the user in.
func (s *authService) VerifyEmail(ctx context.Context, token, kind string) (*AuthResponseWithRefreshToken, error) {
	if kind == "" {
		kind = VerifySignup
	}
	if kind != VerifySignup && kind != VerifyRecovery {
		return nil, fmt.Errorf("%w: unknown verification type %q", ErrInvalidInput, kind)
	}

	var payload userToken
	if err := s.oneTime.Consume(ctx, kind, token, &payload); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsEmailVerified {
		if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.IsEmailVerified = true
	}

	return s.sessions.issue(ctx, user)
}

// RecoverPassword mails a one-time login link used to set a new password.
func (s *authService) RecoverPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	return s.sendLink(ctx, user, VerifyRecovery)
}

// UpdatePassword replaces the password and signs out every other session.
func (s *authService) UpdatePassword(ctx context.Context, userID, password string) error {
	if !utils.ValidatePassword(password) {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, utils.MinPasswordLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	user.PasswordHash, err = utils.HashPassword(password, s.opts.BCryptCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.tokenRepo.DeleteByUserID(ctx, userID)
}

func (s *authService) sendLink(ctx context.Context, user *domain.User, kind string) error {
	ttl := s.opts.VerificationTokenExpiry
	subject := mailer.VerificationSubject
	render := mailer.VerificationBody
	if kind == VerifyRecovery {
		ttl = s.opts.RecoveryTokenExpiry
		subject = mailer.RecoverySubject
		render = mailer.RecoveryBody
	}

	token, err := s.oneTime.Issue(ctx, kind, userToken{UserID: user.ID}, ttl)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/auth/verify?%s", s.opts.PublicURL, url.Values{
		"token": {token},
		"type":  {kind},
	}.Encode())

	body, err := render(link, ttl.String())
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return err
	}
	s.metrics.EmailSent(ctx, kind)
	return nil
}

// UserResponse renders a user for the API
func UserResponse(user *domain.User) *dto.UserResponse {
	response := &dto.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Phone:         user.Phone,
		FullName:      user.FullName,
		UserType:      string(user.UserType),
		EmailVerified: user.IsEmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     user.UpdatedAt.Format(time.RFC3339),
	}

	if user.LastLoginAt != nil {
		lastLogin := user.LastLoginAt.Format(time.RFC3339)
		response.LastLoginAt = &lastLogin
	}

	return response
}
