package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/prperemyshlev/kanah-health/internal/notify"
	"github.com/prperemyshlev/kanah-health/internal/securestore"
	"github.com/prperemyshlev/kanah-health/internal/utils"
)

// Gate owns the auth state machine. It is safe for concurrent use; observers
// are always invoked without the gate's lock held.
type Gate struct {
	backend Backend
	store   securestore.Store
	nav     Navigator
	logger  *zap.Logger

	mu        sync.Mutex
	state     State
	session   *Session
	onboarded bool
	verifier  string
	observers map[int]func(Change)
	nextID    int
}

type Option func(*Gate)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func NewGate(backend Backend, store securestore.Store, nav Navigator, opts ...Option) *Gate {
	g := &Gate{
		backend:   backend,
		store:     store,
		nav:       nav,
		logger:    zap.NewNop(),
		state:     Loading,
		observers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns a copy of the current session, or nil.
func (g *Gate) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil
	}
	s := *g.session
	return &s
}

func (g *Gate) OnboardingComplete() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.onboarded
}

// Subscribe registers fn for state changes. The returned func may be called
// any number of times.
func (g *Gate) Subscribe(fn func(Change)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.observers[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.observers, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gate) transition(to State, sess *Session, onboarded bool) {
	g.mu.Lock()
	from := g.state
	g.state = to
	g.session = sess
	g.onboarded = onboarded
	if from == to {
		g.mu.Unlock()
		return
	}
	observers := make([]func(Change), 0, len(g.observers))
	for _, fn := range g.observers {
		observers = append(observers, fn)
	}
	g.mu.Unlock()

	g.logger.Debug("Session state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	change := Change{From: from, To: to, Session: sess}
	for _, fn := range observers {
		fn(change)
	}
}

// Resolve asks the backend for the current session. Any failure leaves the
// gate Unauthenticated; there is no retry. A transport error keeps the stored
// tokens for the next launch, while a session the backend rejects is wiped.
func (g *Gate) Resolve(ctx context.Context) State {
	sess, err := g.backend.CurrentSession(ctx)
	if err != nil {
		g.logger.Warn("Session resolution failed, treating as signed out", zap.Error(err))
		g.transition(Unauthenticated, nil, false)
		return Unauthenticated
	}
	if sess == nil {
		g.clear()
		return Unauthenticated
	}

	g.transition(Authenticated, sess, g.fetchOnboarding(ctx))
	return Authenticated
}

func (g *Gate) fetchOnboarding(ctx context.Context) bool {
	complete, err := g.backend.OnboardingComplete(ctx)
	if err != nil {
		g.logger.Warn("Onboarding status unavailable, assuming incomplete", zap.Error(err))
		return false
	}
	return complete
}

// Redirect decides where a screen in group should send the user, if anywhere.
func (g *Gate) Redirect(group Group) (string, bool) {
	g.mu.Lock()
	state, onboarded := g.state, g.onboarded
	g.mu.Unlock()

	switch state {
	case Unauthenticated:
		if group == GroupTabs || group == GroupOnboarding {
			return RouteLogin, true
		}
	case Authenticated:
		switch {
		case group == GroupAuth:
			return homeRoute(onboarded), true
		case group == GroupTabs && !onboarded:
			return RouteOnboarding, true
		case group == GroupOnboarding && onboarded:
			return RouteTabs, true
		}
	}
	return "", false
}

// OnNavigationChange applies Redirect through the navigator.
func (g *Gate) OnNavigationChange(group Group) (string, bool) {
	route, ok := g.Redirect(group)
	if ok {
		g.nav.Replace(route)
	}
	return route, ok
}

// SplashTarget is where the splash screen forwards a signed-in user.
func (g *Gate) SplashTarget() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticated {
		return "", false
	}
	return homeRoute(g.onboarded), true
}

func homeRoute(onboarded bool) string {
	if onboarded {
		return RouteTabs
	}
	return RouteOnboarding
}

var errMissingFields = &ValidationError{
	Title:   "Oops, Something's Wrong!",
	Message: "Please fill in all fields to continue",
}

func (g *Gate) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errMissingFields
	}

	sess, err := g.backend.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return g.establish(ctx, sess)
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	Phone           string
}

func (in SignUpInput) validate() error {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || in.ConfirmPassword == "" {
		return errMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return &ValidationError{Title: "Passwords Don't Match!", Message: "Please make sure your passwords match"}
	}
	if !utils.ValidatePassword(in.Password) {
		return &ValidationError{Title: "Password Too Short!", Message: "Password must be at least 6 characters long"}
	}
	if in.Phone != "" {
		if err := utils.CheckPhone(in.Phone); err != nil {
			return &ValidationError{Title: "Invalid Phone", Message: err.Error()}
		}
	}
	return nil
}

// SignUp creates the account. When the backend withholds the session until the
// email is verified, the user is sent to the verification screen and the gate
// stays Unauthenticated.
func (g *Gate) SignUp(ctx context.Context, in SignUpInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	email := strings.TrimSpace(in.Email)
	sess, err := g.backend.SignUp(ctx, email, in.Password, SignUpData{
		FullName: strings.TrimSpace(in.FullName),
		Phone:    in.Phone,
	})
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	if sess == nil {
		g.logger.Info("Signup requires email verification")
		g.nav.Push(RouteVerifyEmail + "?email=" + url.QueryEscape(email))
		return nil
	}
	return g.establish(ctx, sess)
}

func (g *Gate) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Title: "Resend Failed", Message: "Email address is missing"}
	}
	if err := g.backend.ResendVerification(ctx, email); err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	return nil
}

// StartOAuth returns the provider URL to open. The PKCE verifier stays with
// the gate until CompleteOAuth.
func (g *Gate) StartOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	authURL, verifier, err := g.backend.AuthorizeURL(ctx, provider, redirectTo)
	if err != nil {
		return "", &OAuthError{Message: err.Error()}
	}

	g.mu.Lock()
	g.verifier = verifier
	g.mu.Unlock()
	return authURL, nil
}

// CompleteOAuth finishes a provider flow from the URL the browser came back
// with. A code is exchanged with the stored verifier; tokens in the fragment
// are adopted directly; an error parameter means the user backed out.
func (g *Gate) CompleteOAuth(ctx context.Context, callbackURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return &OAuthError{Message: fmt.Sprintf("invalid callback URL: %v", err)}
	}
	query := u.Query()
	fragment, _ := url.ParseQuery(u.Fragment)

	g.mu.Lock()
	verifier := g.verifier
	g.verifier = ""
	g.mu.Unlock()

	if query.Has("error") || fragment.Has("error") {
		return ErrOAuthCancelled
	}

	var sess *Session
	switch {
	case query.Get("code") != "":
		if verifier == "" {
			return ErrNoPendingOAuth
		}
		sess, err = g.backend.ExchangeCode(ctx, query.Get("code"), verifier)
	case fragment.Get("access_token") != "" && fragment.Get("refresh_token") != "":
		sess, err = g.backend.SetSession(ctx, fragment.Get("access_token"), fragment.Get("refresh_token"))
	default:
		return &OAuthError{Message: ErrNoAuthCode.Error()}
	}
	if err != nil {
		return &OAuthError{Message: err.Error()}
	}
	return g.establish(ctx, sess)
}

// SignOut asks for confirmation first. Once confirmed, local state is wiped
// even if the backend call fails; that failure is still returned.
func (g *Gate) SignOut(ctx context.Context, d notify.Dispatcher) error {
	if !d.Confirm("Logout", "Are you sure you want to logout?") {
		return ErrSignOutDeclined
	}

	remoteErr := g.backend.SignOut(ctx)
	if remoteErr != nil {
		g.logger.Warn("Remote sign out failed", zap.Error(remoteErr))
	}

	g.clear()
	g.nav.Replace(RouteSplash)

	if remoteErr != nil {
		return &ValidationError{Title: "Error", Message: "Failed to logout"}
	}
	return nil
}

// Invalidate drops the session after the backend reported it unusable.
func (g *Gate) Invalidate(reason string) {
	g.logger.Info("Session invalidated", zap.String("reason", reason))
	g.clear()
	g.nav.Replace(RouteLogin)
}

// MarkOnboardingComplete is called once the wizard has written every record.
func (g *Gate) MarkOnboardingComplete() {
	g.mu.Lock()
	g.onboarded = true
	g.mu.Unlock()
	g.nav.Replace(RouteTabs)
}

func (g *Gate) establish(ctx context.Context, sess *Session) error {
	if err := g.persist(sess); err != nil {
		return err
	}
	onboarded := g.fetchOnboarding(ctx)
	g.transition(Authenticated, sess, onboarded)
	g.nav.Replace(homeRoute(onboarded))
	return nil
}

func (g *Gate) persist(sess *Session) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode user data: %w", err)
	}

	if err := g.store.Set(securestore.KeyAuthToken, sess.AccessToken); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := g.store.Set(securestore.KeyRefreshToken, sess.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := g.store.Set(securestore.KeyUserData, string(blob)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (g *Gate) clear() {
	err := securestore.Clear(g.store, securestore.KeyAuthToken, securestore.KeyRefreshToken, securestore.KeyUserData)
	if err != nil && !errors.Is(err, securestore.ErrNotFound) {
		g.logger.Error("Failed to clear secure store", zap.Error(err))
	}
	g.transition(Unauthenticated, nil, false)
}
