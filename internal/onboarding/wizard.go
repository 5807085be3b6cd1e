package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prperemyshlev/kanah-health/internal/notify"
	"github.com/prperemyshlev/kanah-health/internal/session"
)

// SessionSource hands the wizard the signed-in session at completion time.
type SessionSource interface {
	Session() *session.Session
}

// Reporter is told once every onboarding record has been written.
type Reporter interface {
	MarkOnboardingComplete()
}

// ErrCompletionInProgress rejects events while the records are being written.
var ErrCompletionInProgress = errors.New("Your profile is still being saved")

type Wizard struct {
	completer *Completer
	sessions  SessionSource
	reporter  Reporter
	now       func() time.Time
	logger    *zap.Logger

	mu         sync.Mutex
	step       Step
	draft      Draft
	challenge  *Challenge
	completing bool
}

type Option func(*Wizard)

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		w.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

func NewWizard(completer *Completer, sessions SessionSource, reporter Reporter, opts ...Option) *Wizard {
	w := &Wizard{
		completer: completer,
		sessions:  sessions,
		reporter:  reporter,
		now:       time.Now,
		logger:    zap.NewNop(),
		step:      StepPhoneVerification,
		draft:     NewDraft(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Challenge is the code most recently sent with SendCode, or nil.
func (w *Wizard) Challenge() *Challenge {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.challenge
}

// SendCode validates phone and issues a new verification code. There is no
// SMS gateway, so the returned notice shows the code itself.
func (w *Wizard) SendCode(phone string) (notify.Notice, error) {
	if err := ValidatePhone(phone); err != nil {
		return notify.Notice{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.challenge == nil {
		c, err := NewChallenge()
		if err != nil {
			return notify.Notice{}, err
		}
		w.challenge = c
	} else if err := w.challenge.Resend(); err != nil {
		return notify.Notice{}, err
	}

	return notify.Notice{
		Severity: notify.SeveritySuccess,
		Title:    "OTP Sent! 📱",
		Message:  fmt.Sprintf("Your verification code is: %s\n\n(This is for testing only)", w.challenge.Code()),
	}, nil
}

// Dispatch applies ev. Submitting the birth type also runs completion; if
// that fails the wizard stays on the birth type step with the draft intact.
// The remote writes run on a snapshot without holding the lock, and other
// events are refused with ErrCompletionInProgress until they finish.
func (w *Wizard) Dispatch(ctx context.Context, ev Event) (Step, error) {
	w.mu.Lock()

	if w.completing {
		current := w.step
		w.mu.Unlock()
		return current, ErrCompletionInProgress
	}

	if sp, ok := ev.(SubmitPhone); ok && sp.Challenge == nil {
		sp.Challenge = w.challenge
		ev = sp
	}

	current := w.step
	next, patch, err := Transition(current, w.draft, ev, w.now())
	if err != nil {
		w.mu.Unlock()
		return current, err
	}
	w.draft = w.draft.Merge(patch)

	if next != StepComplete {
		w.step = next
		w.mu.Unlock()
		w.logger.Debug("Onboarding step advanced", zap.Stringer("from", current), zap.Stringer("to", next))
		return next, nil
	}

	w.completing = true
	snapshot := w.draft
	snapshot.BabyBirthDates = slices.Clone(w.draft.BabyBirthDates)
	w.mu.Unlock()

	err = w.completer.Complete(ctx, w.sessions.Session(), &snapshot)

	w.mu.Lock()
	w.completing = false
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("Onboarding completion failed", zap.Error(err))
		return current, err
	}
	w.step = StepComplete
	w.draft.Reset()
	w.challenge = nil
	w.mu.Unlock()

	w.reporter.MarkOnboardingComplete()
	return StepComplete, nil
}

// Reset discards all answers and starts over.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepPhoneVerification
	w.draft.Reset()
	w.challenge = nil
}
