// Package session decides whether the app is signed in and which route group
// the user is allowed to see.
package session

import (
	"context"
	"errors"

	"github.com/prperemyshlev/kanah-health/internal/notify"
)

type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Group is the top-level route segment a screen lives under.
type Group string

const (
	GroupSplash     Group = "splash"
	GroupAuth       Group = "auth"
	GroupOnboarding Group = "onboarding"
	GroupTabs       Group = "tabs"
)

const (
	RouteSplash      = "/"
	RouteLogin       = "/(auth)/login"
	RouteVerifyEmail = "/(auth)/verify-email"
	RouteOnboarding  = "/(onboarding)/phone-verification"
	RouteTabs        = "/(tabs)"
)

// Session is the signed-in identity plus the tokens that prove it.
type Session struct {
	UserID        string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	AccessToken   string `json:"-"`
	RefreshToken  string `json:"-"`
	ExpiresAt     int64  `json:"-"`
}

// SignUpData is the optional profile captured with a new account.
type SignUpData struct {
	FullName string
	Phone    string
}

// Backend is the remote auth collaborator.
type Backend interface {
	// CurrentSession returns nil, nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignUp returns a nil session when the email must be verified first.
	SignUp(ctx context.Context, email, password string, data SignUpData) (*Session, error)
	ResendVerification(ctx context.Context, email string) error
	// AuthorizeURL starts a PKCE flow and returns the provider URL and the verifier to keep.
	AuthorizeURL(ctx context.Context, provider, redirectTo string) (authURL, verifier string, err error)
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)
	// SetSession adopts tokens delivered directly in a callback URL.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	OnboardingComplete(ctx context.Context) (bool, error)
	SignOut(ctx context.Context) error
}

// Navigator performs route changes decided by the gate.
type Navigator interface {
	Replace(route string)
	Push(route string)
}

// Change is delivered to observers on every state transition.
type Change struct {
	From    State
	To      State
	Session *Session
}

var (
	ErrOAuthCancelled  = &OAuthError{Cancelled: true, Message: "User cancelled"}
	ErrNoAuthCode      = errors.New("callback carries neither a code nor tokens")
	ErrNoPendingOAuth  = errors.New("no OAuth flow in progress")
	ErrSignOutDeclined = errors.New("sign out not confirmed")
)

// ValidationError is a local input problem; no remote call was made.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Notice() notify.Notice {
	return notify.Notice{Severity: notify.SeverityError, Title: e.Title, Message: e.Message}
}

// OAuthError reports a provider flow that did not produce a session.
type OAuthError struct {
	Cancelled bool
	Message   string
}

func (e *OAuthError) Error() string { return e.Message }

func (e *OAuthError) Notice() notify.Notice {
	if e.Cancelled {
		return notify.Notice{Severity: notify.SeverityInfo, Title: "Google Sign In", Message: e.Message}
	}
	return notify.Notice{Severity: notify.SeverityError, Title: "Google Sign In Failed", Message: e.Message}
}
