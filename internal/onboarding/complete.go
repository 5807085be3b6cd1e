package onboarding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/notify"
	"github.com/prperemyshlev/kanah-health/internal/session"
)

// ProfileStore is the remote side of onboarding.
type ProfileStore interface {
	// GetUser returns nil, nil when no row exists.
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpsertUser(ctx context.Context, userID string, req dto.UpsertUserRequest) (*dto.UserResponse, error)
	CreateMother(ctx context.Context, req dto.CreateMotherRequest) (*domain.Mother, error)
	CreateBabies(ctx context.Context, babies []dto.BabyInput) ([]domain.Baby, error)
	OnboardingStatus(ctx context.Context) (*domain.OnboardingStatus, error)
}

var (
	ErrBirthTypeRequired = errors.New("Birth type is required")
	ErrNoActiveSession   = errors.New("No active session")
)

// SetupError is a failed completion. Step names the write that failed, empty
// when nothing was sent. The error text is the cause alone ("Birth type is
// required"); the "Setup Failed" title belongs to the notice.
type SetupError struct {
	Step string
	Err  error
}

func (e *SetupError) Error() string { return e.Err.Error() }

func (e *SetupError) Unwrap() error { return e.Err }

func (e *SetupError) Notice() notify.Notice {
	return notify.Notice{Severity: notify.SeverityError, Title: "Setup Failed", Message: e.Err.Error()}
}

// Completer writes a finished draft as user, mother and baby records.
type Completer struct {
	store  ProfileStore
	logger *zap.Logger
}

func NewCompleter(store ProfileStore, logger *zap.Logger) *Completer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{store: store, logger: logger}
}

// Complete runs the writes strictly in order and stops at the first failure.
// The API treats mother and baby writes as upserts, so a failed run can be
// retried from the top. On success the draft is reset.
func (c *Completer) Complete(ctx context.Context, sess *session.Session, draft *Draft) error {
	if sess == nil || sess.UserID == "" {
		return &SetupError{Err: ErrNoActiveSession}
	}
	if draft.BirthType == nil {
		return &SetupError{Err: ErrBirthTypeRequired}
	}
	count := draft.BabyNumber
	if count == 0 {
		count = 1
	}
	if len(draft.BabyBirthDates) < count {
		return &SetupError{Err: ErrBabyDates}
	}

	logger := c.logger.With(zap.String("user_id", sess.UserID))

	if err := c.writeUser(ctx, sess, draft); err != nil {
		return &SetupError{Step: domain.StepUserAccount, Err: err}
	}
	logger.Debug("Onboarding user record written")

	language := draft.LanguagePreference
	if language == "" {
		language = domain.LanguageEnglish
	}
	mother, err := c.store.CreateMother(ctx, dto.CreateMotherRequest{
		UserID:             sess.UserID,
		BirthType:          string(*draft.BirthType),
		LanguagePreference: string(language),
		SubscriptionStatus: string(domain.SubscriptionFree),
		DOB:                draft.DateOfBirth,
		Location:           draft.Location,
	})
	if err != nil {
		return &SetupError{Step: domain.StepMotherAccount, Err: err}
	}
	logger.Debug("Onboarding mother record written", zap.String("mother_id", mother.ID))

	babies := make([]dto.BabyInput, count)
	for i := range count {
		babies[i] = dto.BabyInput{
			MotherID:   mother.ID,
			BirthDate:  draft.BabyBirthDates[i],
			BabyNumber: i + 1,
		}
	}
	if _, err := c.store.CreateBabies(ctx, babies); err != nil {
		return &SetupError{Step: domain.StepBabyAccount, Err: err}
	}

	logger.Info("Onboarding completed", zap.Int("babies", count))
	draft.Reset()
	return nil
}

func (c *Completer) writeUser(ctx context.Context, sess *session.Session, draft *Draft) error {
	existing, err := c.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return err
	}

	req := dto.UpsertUserRequest{UserType: string(domain.UserTypeMother)}
	if draft.PhoneNumber != "" {
		phone := draft.PhoneNumber
		req.Phone = &phone
	}
	if draft.FullName != "" {
		name := draft.FullName
		req.FullName = &name
	}
	if existing == nil {
		verified := sess.EmailVerified
		req.Email = sess.Email
		req.EmailVerified = &verified
	}

	if _, err := c.store.UpsertUser(ctx, sess.UserID, req); err != nil {
		return err
	}
	return nil
}

// CheckStatus reports which onboarding records the signed-in user still lacks.
func (c *Completer) CheckStatus(ctx context.Context) (*domain.OnboardingStatus, error) {
	status, err := c.store.OnboardingStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check onboarding status: %w", err)
	}
	return status, nil
}
