package acceptance

import (
	"net/http"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
)

func (s *Suite) TestOnboarding_FullFlow() {
	session := s.signUpVerified("onboard@example.com", "secret1")

	var me dto.UserResponse
	s.call(http.MethodGet, "/api/v1/auth/session", session.AccessToken, nil, &me)

	var status domain.OnboardingStatus
	s.call(http.MethodGet, "/api/v1/onboarding/status", session.AccessToken, nil, &status)
	s.False(status.IsComplete)
	s.Equal([]string{domain.StepMotherAccount}, status.MissingSteps)

	phone, name := "+254712345678", "Amina Wanjiru"
	var user dto.UserResponse
	resp := s.call(http.MethodPut, "/api/v1/users/"+me.ID, session.AccessToken, dto.UpsertUserRequest{
		Email: "onboard@example.com", Phone: &phone, FullName: &name, UserType: "mother",
	}, &user)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(name, *user.FullName)

	var mother domain.Mother
	resp = s.call(http.MethodPost, "/api/v1/mothers", session.AccessToken, map[string]any{
		"user_id":             me.ID,
		"birth_type":          "c_section",
		"language_preference": "swahili",
	}, &mother)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Equal(domain.SubscriptionFree, mother.SubscriptionStatus)

	birth := time.Now().AddDate(0, -1, 0).Format(domain.DateLayout)
	var babies []domain.Baby
	resp = s.call(http.MethodPost, "/api/v1/babies", session.AccessToken, []map[string]any{
		{"mother_id": mother.ID, "birth_date": birth, "baby_number": 1},
		{"mother_id": mother.ID, "birth_date": birth, "baby_number": 2},
	}, &babies)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Len(babies, 2)

	s.call(http.MethodGet, "/api/v1/onboarding/status", session.AccessToken, nil, &status)
	s.True(status.IsComplete)
	s.Empty(status.MissingSteps)
	s.Len(status.Babies, 2)
}

func (s *Suite) TestOnboarding_RetryIsIdempotent() {
	session := s.signUpVerified("retry@example.com", "secret1")

	var me dto.UserResponse
	s.call(http.MethodGet, "/api/v1/auth/session", session.AccessToken, nil, &me)

	var first, second domain.Mother
	body := map[string]any{"user_id": me.ID, "birth_type": "vaginal"}
	s.call(http.MethodPost, "/api/v1/mothers", session.AccessToken, body, &first)
	body["birth_type"] = "c_section"
	s.call(http.MethodPost, "/api/v1/mothers", session.AccessToken, body, &second)

	s.Equal(first.ID, second.ID)
	s.Equal(domain.BirthTypeCSection, second.BirthType)

	babies := []map[string]any{{"mother_id": first.ID, "birth_date": "2025-12-01", "baby_number": 1}}
	resp := s.call(http.MethodPost, "/api/v1/babies", session.AccessToken, babies, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp = s.call(http.MethodPost, "/api/v1/babies", session.AccessToken, babies, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var status domain.OnboardingStatus
	s.call(http.MethodGet, "/api/v1/onboarding/status", session.AccessToken, nil, &status)
	s.Len(status.Babies, 1)
}

func (s *Suite) TestOnboarding_OtherUsersRowsAreForbidden() {
	alice := s.signUpVerified("alice@example.com", "secret1")
	bob := s.signUpVerified("bob@example.com", "secret1")

	var aliceUser dto.UserResponse
	s.call(http.MethodGet, "/api/v1/auth/session", alice.AccessToken, nil, &aliceUser)

	resp := s.call(http.MethodGet, "/api/v1/users/"+aliceUser.ID, bob.AccessToken, nil, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.call(http.MethodPost, "/api/v1/mothers", bob.AccessToken, map[string]any{
		"user_id": aliceUser.ID, "birth_type": "vaginal",
	}, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestBabies_FutureDateRejected() {
	session := s.signUpVerified("future@example.com", "secret1")

	var me dto.UserResponse
	s.call(http.MethodGet, "/api/v1/auth/session", session.AccessToken, nil, &me)

	var mother domain.Mother
	s.call(http.MethodPost, "/api/v1/mothers", session.AccessToken, map[string]any{
		"user_id": me.ID, "birth_type": "vaginal",
	}, &mother)

	future := time.Now().AddDate(0, 0, 7).Format(domain.DateLayout)
	resp := s.call(http.MethodPost, "/api/v1/babies", session.AccessToken, []map[string]any{
		{"mother_id": mother.ID, "birth_date": future, "baby_number": 1},
	}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
