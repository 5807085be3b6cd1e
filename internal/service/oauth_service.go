package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/repository"
	"github.com/prperemyshlev/kanah-health/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// OAuthProviderConfig describes one enabled identity provider.
type OAuthProviderConfig struct {
	OAuth2      *oauth2.Config
	UserInfoURL string
}

// GoogleProvider builds the provider config for Google sign-in.
func GoogleProvider(clientID, clientSecret, redirectURL string) OAuthProviderConfig {
	return OAuthProviderConfig{
		OAuth2: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		UserInfoURL: googleUserInfoURL,
	}
}

// OAuthOptions carries the tunables of OAuthService.
type OAuthOptions struct {
	StateExpiry       time.Duration
	AuthCodeExpiry    time.Duration
	RedirectAllowList []string
}

type oauthState struct {
	Provider      string `json:"provider"`
	RedirectTo    string `json:"redirect_to"`
	CodeChallenge string `json:"code_challenge"`
	// Verifier protects our own exchange with the provider.
	Verifier string `json:"verifier"`
}

type oauthCode struct {
	UserID        string `json:"user_id"`
	CodeChallenge string `json:"code_challenge"`
}

type providerUser struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OneTimeTokens issues and redeems single-use payloads. OneTimeStore is the
// redis implementation.
type OneTimeTokens interface {
	Issue(ctx context.Context, purpose string, payload any, ttl time.Duration) (string, error)
	Consume(ctx context.Context, purpose, token string, dest any) error
}

var _ OneTimeTokens = (*OneTimeStore)(nil)

// errUnverifiedLink rejects linking a provider identity to an existing account
// when the provider has not verified the email.
var errUnverifiedLink = fmt.Errorf("%w: provider email is not verified", ErrInvalidGrant)

type oauthService struct {
	providers    map[string]OAuthProviderConfig
	userRepo     repository.UserRepository
	providerRepo repository.OAuthProviderRepository
	oneTime      OneTimeTokens
	sessions     *sessionIssuer
	metrics      *Metrics
	logger       *zap.Logger
	opts         OAuthOptions
}

func NewOAuthService(
	providers map[string]OAuthProviderConfig,
	userRepo repository.UserRepository,
	providerRepo repository.OAuthProviderRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *utils.JWTManager,
	oneTime OneTimeTokens,
	metrics *Metrics,
	logger *zap.Logger,
	refreshTokenExpiry time.Duration,
	opts OAuthOptions,
) OAuthService {
	return &oauthService{
		providers:    providers,
		userRepo:     userRepo,
		providerRepo: providerRepo,
		oneTime:      oneTime,
		sessions: &sessionIssuer{
			tokenRepo:          tokenRepo,
			jwtManager:         jwtManager,
			refreshTokenExpiry: refreshTokenExpiry,
		},
		metrics: metrics,
		logger:  logger,
		opts:    opts,
	}
}

// Authorize remembers the app's PKCE challenge and returns the provider
// consent URL to open in a browser.
func (s *oauthService) Authorize(ctx context.Context, provider, redirectTo, codeChallenge, challengeMethod string) (string, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return "", ErrProviderDisabled
	}
	if !s.redirectAllowed(redirectTo) {
		return "", ErrInvalidRedirect
	}
	if codeChallenge == "" || (challengeMethod != "" && !strings.EqualFold(challengeMethod, "S256")) {
		return "", fmt.Errorf("%w: an S256 code_challenge is required", ErrInvalidInput)
	}

	verifier := oauth2.GenerateVerifier()
	state, err := s.oneTime.Issue(ctx, PurposeOAuthState, oauthState{
		Provider:      provider,
		RedirectTo:    redirectTo,
		CodeChallenge: codeChallenge,
		Verifier:      verifier,
	}, s.opts.StateExpiry)
	if err != nil {
		return "", err
	}

	return cfg.OAuth2.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.S256ChallengeOption(verifier),
	), nil
}

// Callback finishes the provider flow and returns where to send the browser:
// the app's redirect with either ?code= or ?error=.
func (s *oauthService) Callback(ctx context.Context, state, code, providerError string) (string, error) {
	var st oauthState
	if err := s.oneTime.Consume(ctx, PurposeOAuthState, state, &st); err != nil {
		return "", err
	}

	if providerError != "" {
		s.metrics.Login(ctx, st.Provider, false)
		return withQuery(st.RedirectTo, url.Values{
			"error":             {providerError},
			"error_description": {"User cancelled"},
		})
	}

	cfg, ok := s.providers[st.Provider]
	if !ok {
		return "", ErrProviderDisabled
	}

	token, err := cfg.OAuth2.Exchange(ctx, code, oauth2.VerifierOption(st.Verifier))
	if err != nil {
		s.metrics.Login(ctx, st.Provider, false)
		return "", fmt.Errorf("%w: provider code exchange failed: %v", ErrInvalidGrant, err)
	}

	info, err := fetchUserInfo(ctx, cfg.OAuth2.Client(ctx, token), cfg.UserInfoURL)
	if err != nil {
		return "", err
	}

	user, err := s.resolveUser(ctx, st.Provider, info)
	if errors.Is(err, errUnverifiedLink) {
		s.metrics.Login(ctx, st.Provider, false)
		s.logger.Warn("Refused to link unverified provider email", zap.String("provider", st.Provider))
		return withQuery(st.RedirectTo, url.Values{
			"error":             {"access_denied"},
			"error_description": {"Email is not verified with the provider"},
		})
	}
	if err != nil {
		return "", err
	}

	authCode, err := s.oneTime.Issue(ctx, PurposeOAuthCode, oauthCode{
		UserID:        user.ID,
		CodeChallenge: st.CodeChallenge,
	}, s.opts.AuthCodeExpiry)
	if err != nil {
		return "", err
	}

	s.metrics.Login(ctx, st.Provider, true)
	return withQuery(st.RedirectTo, url.Values{"code": {authCode}})
}

// ExchangeCode trades the one-time auth code for a session once the caller
// proves it holds the verifier behind the original challenge.
func (s *oauthService) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*AuthResponseWithRefreshToken, error) {
	var payload oauthCode
	if err := s.oneTime.Consume(ctx, PurposeOAuthCode, authCode, &payload); err != nil {
		return nil, ErrInvalidGrant
	}

	if oauth2.S256ChallengeFromVerifier(codeVerifier) != payload.CodeChallenge {
		return nil, fmt.Errorf("%w: code verifier does not match", ErrInvalidGrant)
	}

	user, err := s.userRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return s.sessions.issue(ctx, user)
}

// resolveUser finds the account for a provider identity, linking by email or
// creating a new mother account when needed. An existing account is only
// linked when the provider vouches for the email.
func (s *oauthService) resolveUser(ctx context.Context, provider string, info *providerUser) (*domain.User, error) {
	link, err := s.providerRepo.GetByProvider(ctx, provider, info.Subject)
	if err == nil {
		return s.userRepo.GetByID(ctx, link.UserID)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	email := utils.SanitizeEmail(info.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !info.EmailVerified {
			return nil, errUnverifiedLink
		}
		if !user.IsEmailVerified {
			if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
				return nil, err
			}
			user.IsEmailVerified = true
		}
	case errors.Is(err, repository.ErrNotFound):
		user = &domain.User{
			Email:           email,
			UserType:        domain.UserTypeMother,
			IsActive:        true,
			IsEmailVerified: info.EmailVerified,
		}
		if info.Name != "" {
			user.FullName = &info.Name
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.metrics.Signup(ctx, provider)
	default:
		return nil, err
	}

	err = s.providerRepo.Create(ctx, &domain.OAuthProvider{
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: info.Subject,
		Email:          &email,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicateOAuthProvider) {
		return nil, err
	}

	s.logger.Info("Linked oauth identity", zap.String("provider", provider), zap.String("user_id", user.ID))
	return user, nil
}

func (s *oauthService) redirectAllowed(redirectTo string) bool {
	if redirectTo == "" {
		return false
	}
	target, err := url.Parse(redirectTo)
	if err != nil || target.Scheme == "" || target.User != nil {
		return false
	}
	for _, entry := range s.opts.RedirectAllowList {
		if redirectMatches(target, entry) {
			return true
		}
	}
	return false
}

// redirectMatches compares scheme, host and port exactly and the path at a
// segment boundary. An entry without a host ("kanahhealth://") admits any
// target of that scheme.
func redirectMatches(target *url.URL, entry string) bool {
	allowed, err := url.Parse(entry)
	if err != nil || allowed.Scheme == "" {
		return false
	}
	if !strings.EqualFold(allowed.Scheme, target.Scheme) {
		return false
	}
	if allowed.Host == "" {
		return true
	}
	if !strings.EqualFold(allowed.Hostname(), target.Hostname()) {
		return false
	}
	if allowed.Port() != "" && allowed.Port() != target.Port() {
		return false
	}

	prefix := strings.TrimSuffix(allowed.Path, "/")
	return prefix == "" || target.Path == prefix || strings.HasPrefix(target.Path, prefix+"/")
}

func fetchUserInfo(ctx context.Context, client *http.Client, endpoint string) (*providerUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info providerUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Subject == "" || info.Email == "" {
		return nil, fmt.Errorf("userinfo is missing subject or email")
	}
	return &info, nil
}

func withQuery(raw string, params url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRedirect, err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
