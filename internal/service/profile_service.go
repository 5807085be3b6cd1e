package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/repository"
	"go.uber.org/zap"
)

type profileService struct {
	userRepo   repository.UserRepository
	motherRepo repository.MotherRepository
	babyRepo   repository.BabyRepository
	metrics    *Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewProfileService(
	userRepo repository.UserRepository,
	motherRepo repository.MotherRepository,
	babyRepo repository.BabyRepository,
	metrics *Metrics,
	logger *zap.Logger,
) ProfileService {
	return &profileService{
		userRepo:   userRepo,
		motherRepo: motherRepo,
		babyRepo:   babyRepo,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *profileService) GetUser(ctx context.Context, callerID, userID string) (*domain.User, error) {
	if callerID != userID {
		return nil, ErrForbidden
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpsertUser updates the caller's profile row, creating it if it is missing.
// Only fields present in req are written.
func (s *profileService) UpsertUser(ctx context.Context, caller *domain.TokenClaims, userID string, req *dto.UpsertUserRequest) (*domain.User, error) {
	if caller.UserID != userID {
		return nil, ErrForbidden
	}
	if req.Email != "" && req.Email != caller.Email {
		return nil, fmt.Errorf("%w: email does not match the session", ErrInvalidInput)
	}

	userType := domain.UserType(req.UserType)
	if userType != "" && userType != domain.UserTypeMother {
		// Elevated account types are provisioned by staff, not self-service.
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user = &domain.User{
			ID:              userID,
			Email:           caller.Email,
			Phone:           req.Phone,
			FullName:        req.FullName,
			UserType:        domain.UserTypeMother,
			IsActive:        true,
			// No account row vouches for the address and req.EmailVerified
			// is client input, so the email starts unverified.
			IsEmailVerified: false,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if req.Phone != nil {
			user.Phone = req.Phone
		}
		if req.FullName != nil {
			user.FullName = req.FullName
		}
		if userType != "" {
			user.UserType = userType
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	s.metrics.OnboardingWrite(ctx, "users", 1)
	return user, nil
}

// CreateMother writes the caller's mother profile. A second call replaces the
// first instead of adding a row, so a retried onboarding is harmless.
func (s *profileService) CreateMother(ctx context.Context, callerID string, req *dto.CreateMotherRequest) (*domain.Mother, error) {
	if req.UserID != callerID {
		return nil, ErrForbidden
	}

	if req.DOB != nil && req.DOB.After(domain.NewDate(s.now())) {
		return nil, fmt.Errorf("%w: date of birth cannot be in the future", ErrInvalidInput)
	}

	// Paid tiers are granted by billing, never by the profile itself.
	status := domain.SubscriptionStatus(req.SubscriptionStatus)
	if status != "" && status != domain.SubscriptionFree {
		return nil, ErrForbidden
	}

	mother := &domain.Mother{
		UserID:             req.UserID,
		BirthType:          domain.BirthType(req.BirthType),
		LanguagePreference: domain.Language(req.LanguagePreference),
		SubscriptionStatus: domain.SubscriptionFree,
		DOB:                req.DOB,
		Location:           req.Location,
	}
	if !mother.BirthType.Valid() {
		return nil, fmt.Errorf("%w: unknown birth type %q", ErrInvalidInput, req.BirthType)
	}

	if err := s.motherRepo.Upsert(ctx, mother); err != nil {
		return nil, err
	}

	s.metrics.OnboardingWrite(ctx, "mothers", 1)
	s.logger.Info("Mother profile saved", zap.String("user_id", callerID), zap.String("mother_id", mother.ID))
	return mother, nil
}

// CreateBabies writes up to MaxBabies babies for one of the caller's mothers.
func (s *profileService) CreateBabies(ctx context.Context, callerID string, inputs []dto.BabyInput) ([]*domain.Baby, error) {
	if len(inputs) == 0 || len(inputs) > domain.MaxBabies {
		return nil, fmt.Errorf("%w: between 1 and %d babies are required", ErrInvalidInput, domain.MaxBabies)
	}

	motherID := inputs[0].MotherID
	mother, err := s.motherRepo.GetByID(ctx, motherID)
	if err != nil {
		return nil, err
	}
	if mother.UserID != callerID {
		return nil, ErrForbidden
	}

	// Clients may be a calendar day ahead of UTC.
	latest := domain.NewDate(s.now().Add(24 * time.Hour))
	seen := make(map[int]bool, len(inputs))
	babies := make([]*domain.Baby, 0, len(inputs))

	for _, in := range inputs {
		if in.MotherID != motherID {
			return nil, fmt.Errorf("%w: all babies must belong to the same mother", ErrInvalidInput)
		}
		if seen[in.BabyNumber] {
			return nil, fmt.Errorf("%w: duplicate baby_number %d", ErrInvalidInput, in.BabyNumber)
		}
		seen[in.BabyNumber] = true

		if in.BirthDate.IsZero() {
			return nil, fmt.Errorf("%w: birth_date is required", ErrInvalidInput)
		}
		if in.BirthDate.After(latest) {
			return nil, fmt.Errorf("%w: birth date cannot be in the future", ErrInvalidInput)
		}

		babies = append(babies, &domain.Baby{
			MotherID:   in.MotherID,
			BirthDate:  in.BirthDate,
			BabyNumber: in.BabyNumber,
		})
	}

	if err := s.babyRepo.UpsertBatch(ctx, babies); err != nil {
		return nil, err
	}

	s.metrics.OnboardingWrite(ctx, "babies", len(babies))
	return babies, nil
}

// OnboardingStatus reports the first missing record in user -> mother -> babies order.
func (s *profileService) OnboardingStatus(ctx context.Context, userID string) (*domain.OnboardingStatus, error) {
	status := &domain.OnboardingStatus{}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status.MissingSteps = []string{domain.StepUserAccount}
			return status, nil
		}
		return nil, err
	}
	status.User = user

	mother, err := s.motherRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			status.MissingSteps = []string{domain.StepMotherAccount}
			return status, nil
		}
		return nil, err
	}
	status.Mother = mother

	babies, err := s.babyRepo.GetByMotherID(ctx, mother.ID)
	if err != nil {
		return nil, err
	}
	if len(babies) == 0 {
		status.MissingSteps = []string{domain.StepBabyAccount}
		return status, nil
	}

	status.Babies = babies
	status.IsComplete = true
	status.MissingSteps = []string{}
	return status, nil
}
