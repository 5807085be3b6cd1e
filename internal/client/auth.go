package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/securestore"
	"github.com/prperemyshlev/kanah-health/internal/session"
)

var _ session.Backend = (*Client)(nil)

func toSession(resp *dto.AuthResponse) *session.Session {
	return &session.Session{
		UserID:        resp.User.ID,
		Email:         resp.User.Email,
		EmailVerified: resp.User.EmailVerified,
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		ExpiresAt:     resp.ExpiresAt,
	}
}

// CurrentSession returns the stored session if the API still accepts it.
// A rejected or absent token is not an error: it means nobody is signed in.
func (c *Client) CurrentSession(ctx context.Context) (*session.Session, error) {
	if _, err := c.store.Get(securestore.KeyAuthToken); err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var user dto.UserResponse
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/auth/session", authed: true}, &user)
	if IsStatus(err, http.StatusUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// tokens may have been rotated by do
	accessToken, _ := c.store.Get(securestore.KeyAuthToken)
	refreshToken, _ := c.store.Get(securestore.KeyRefreshToken)
	return &session.Session{
		UserID:        user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
	}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   dto.LoginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toSession(&resp), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, data session.SignUpData) (*session.Session, error) {
	var resp dto.SignupResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/signup",
		body: dto.SignupRequest{
			Email:    email,
			Password: password,
			Data:     dto.SignupMetadata{FullName: data.FullName, PhoneNumber: data.Phone},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Session == nil {
		return nil, nil
	}
	return toSession(resp.Session), nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/resend",
		body:   dto.EmailRequest{Email: email},
	}, nil)
}

// Recover asks for a password reset link.
func (c *Client) Recover(ctx context.Context, email string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/recover",
		body:   dto.EmailRequest{Email: email},
	}, nil)
}

// UpdatePassword sets a new password for the signed-in user.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/v1/auth/user",
		body:   dto.UpdatePasswordRequest{Password: password},
		authed: true,
	}, nil)
}

// AuthorizeURL generates a PKCE verifier and asks the API for the provider
// consent URL bound to its challenge.
func (c *Client) AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error) {
	verifier := oauth2.GenerateVerifier()

	var resp dto.AuthorizeResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/auth/authorize",
		query: url.Values{
			"provider":              {provider},
			"redirect_to":           {redirectTo},
			"code_challenge":        {oauth2.S256ChallengeFromVerifier(verifier)},
			"code_challenge_method": {"S256"},
		},
	}, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.URL, verifier, nil
}

func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*session.Session, error) {
	var resp dto.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/token",
		query:  url.Values{"grant_type": {"pkce"}},
		body:   dto.PKCEExchangeRequest{AuthCode: code, CodeVerifier: verifier},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toSession(&resp), nil
}

// SetSession checks tokens handed over in a redirect and returns the session
// they belong to. Nothing is stored.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*session.Session, error) {
	var user dto.UserResponse
	err := c.send(ctx, request{method: http.MethodGet, path: "/api/v1/auth/session", bearer: accessToken}, &user)
	if err != nil {
		return nil, err
	}
	return &session.Session{
		UserID:        user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
	}, nil
}

func (c *Client) OnboardingComplete(ctx context.Context) (bool, error) {
	status, err := c.OnboardingStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.IsComplete, nil
}

// SignOut revokes the stored tokens server side. Local state is left to the
// caller.
func (c *Client) SignOut(ctx context.Context) error {
	if _, err := c.store.Get(securestore.KeyAuthToken); errors.Is(err, securestore.ErrNotFound) {
		return nil
	}
	refreshToken, _ := c.store.Get(securestore.KeyRefreshToken)

	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/logout",
		body:   dto.RefreshRequest{RefreshToken: refreshToken},
		authed: true,
	}, nil)
}
