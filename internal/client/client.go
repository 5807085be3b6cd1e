// Package client talks to the Kanah Health API on behalf of the app. It
// implements the session backend and the onboarding profile store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/notify"
	"github.com/prperemyshlev/kanah-health/internal/securestore"
)

var (
	ErrMissingConfig = errors.New("API URL and API key are required")
	errNoToken       = errors.New("no stored session")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Notice maps well-known API failures onto what the app shows.
func (e *APIError) Notice() notify.Notice {
	switch {
	case strings.Contains(e.Message, "Email not confirmed"):
		return notify.Notice{
			Severity: notify.SeverityWarning,
			Title:    "Email Not Verified",
			Message:  "Please check your email and click the verification link before signing in.",
		}
	case strings.Contains(e.Message, "Invalid login credentials"):
		return notify.Notice{Severity: notify.SeverityError, Title: "Login Failed", Message: e.Message}
	case strings.Contains(e.Message, "User already registered"):
		return notify.Notice{Severity: notify.SeverityError, Title: "Signup Failed!", Message: e.Message}
	case e.Status == http.StatusTooManyRequests:
		return notify.Notice{Severity: notify.SeverityWarning, Title: "Slow Down", Message: e.Message}
	default:
		return notify.Notice{Severity: notify.SeverityError, Title: "Oops, Something's Wrong!", Message: e.Error()}
	}
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   securestore.Store
	logger  *zap.Logger

	// serialises token rotation
	refreshMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a client for baseURL (e.g. http://localhost:8080). Tokens are
// read from and rotated into store.
func New(baseURL, apiKey string, store securestore.Store, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingConfig
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid API URL: %v", ErrMissingConfig, err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	authed bool
	// bearer overrides the stored access token
	bearer string
}

// do sends req and decodes a 2xx body into out. Authenticated requests that
// come back 401 are retried once after rotating the tokens.
func (c *Client) do(ctx context.Context, req request, out any) error {
	err := c.send(ctx, req, out)
	if !req.authed || !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	if rerr := c.refresh(ctx); rerr != nil {
		c.logger.Debug("Token refresh failed", zap.Error(rerr))
		return err
	}
	return c.send(ctx, req, out)
}

func (c *Client) send(ctx context.Context, req request, out any) error {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	switch {
	case req.bearer != "":
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	case req.authed:
		token, err := c.store.Get(securestore.KeyAuthToken)
		if err != nil {
			if errors.Is(err, securestore.ErrNotFound) {
				return &APIError{Status: http.StatusUnauthorized, Code: "no_session", Message: errNoToken.Error()}
			}
			return fmt.Errorf("failed to read session: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body dto.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// refresh trades the stored refresh token for a new pair.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refreshToken, err := c.store.Get(securestore.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("no refresh token: %w", err)
	}

	var session dto.AuthResponse
	err = c.send(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   dto.RefreshRequest{RefreshToken: refreshToken},
	}, &session)
	if err != nil {
		return err
	}

	c.logger.Debug("Rotated session tokens")
	return c.storeTokens(session.AccessToken, session.RefreshToken)
}

func (c *Client) storeTokens(accessToken, refreshToken string) error {
	if err := c.store.Set(securestore.KeyAuthToken, accessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := c.store.Set(securestore.KeyRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}
