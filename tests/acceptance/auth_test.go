package acceptance

import (
	"net/http"

	"github.com/prperemyshlev/kanah-health/internal/dto"
)

func (s *Suite) TestSignup_RequiresVerification() {
	var signup dto.SignupResponse
	resp := s.call(http.MethodPost, "/api/v1/auth/signup", "", dto.SignupRequest{
		Email:    "Mama@Example.com ",
		Password: "secret1",
		Data:     dto.SignupMetadata{FullName: "Amina Wanjiru", PhoneNumber: "+254712345678"},
	}, &signup)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Nil(signup.Session)
	s.Equal("mama@example.com", signup.User.Email)
	s.False(signup.User.EmailVerified)

	var errResp dto.ErrorResponse
	resp = s.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{
		Email: "mama@example.com", Password: "secret1",
	}, &errResp)
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("Email not confirmed", errResp.Message)
}

func (s *Suite) TestSignup_DuplicateEmail() {
	req := dto.SignupRequest{Email: "duplicate@example.com", Password: "secret1"}
	resp := s.call(http.MethodPost, "/api/v1/auth/signup", "", req, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var errResp dto.ErrorResponse
	resp = s.call(http.MethodPost, "/api/v1/auth/signup", "", req, &errResp)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("User already registered", errResp.Message)
}

func (s *Suite) TestSignup_Validation() {
	tests := []struct {
		name string
		req  dto.SignupRequest
	}{
		{"invalid email", dto.SignupRequest{Email: "invalid-email", Password: "secret1"}},
		{"short password", dto.SignupRequest{Email: "a@example.com", Password: "12345"}},
		{"bad phone", dto.SignupRequest{Email: "a@example.com", Password: "secret1", Data: dto.SignupMetadata{PhoneNumber: "+25471234"}}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.call(http.MethodPost, "/api/v1/auth/signup", "", tt.req, nil)
			s.Equal(http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func (s *Suite) TestVerifyLink_LogsInOnce() {
	session := s.signUpVerified("verify@example.com", "secret1")
	s.NotEmpty(session.RefreshToken)

	var user dto.UserResponse
	resp := s.call(http.MethodGet, "/api/v1/auth/session", session.AccessToken, nil, &user)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.True(user.EmailVerified)

	// The link is single use.
	fragment := s.followLink(s.emailLink("verify@example.com"))
	s.Equal("access_denied", fragment.Get("error"))
}

func (s *Suite) TestLogin_WrongPassword() {
	s.signUpVerified("login@example.com", "secret1")

	var errResp dto.ErrorResponse
	resp := s.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{
		Email: "login@example.com", Password: "wrong-password",
	}, &errResp)

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Invalid login credentials", errResp.Message)
}

func (s *Suite) TestRefreshRotatesToken() {
	session := s.signUpVerified("refresh@example.com", "secret1")

	var refreshed dto.AuthResponse
	resp := s.call(http.MethodPost, "/api/v1/auth/token?grant_type=refresh_token", "", dto.RefreshRequest{
		RefreshToken: session.RefreshToken,
	}, &refreshed)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.NotEqual(session.RefreshToken, refreshed.RefreshToken)

	resp = s.call(http.MethodPost, "/api/v1/auth/token?grant_type=refresh_token", "", dto.RefreshRequest{
		RefreshToken: session.RefreshToken,
	}, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogout_RevokesAccessToken() {
	session := s.signUpVerified("logout@example.com", "secret1")

	resp := s.call(http.MethodPost, "/api/v1/auth/logout", session.AccessToken, dto.RefreshRequest{
		RefreshToken: session.RefreshToken,
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.call(http.MethodGet, "/api/v1/auth/session", session.AccessToken, nil, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.call(http.MethodPost, "/api/v1/auth/token?grant_type=refresh_token", "", dto.RefreshRequest{
		RefreshToken: session.RefreshToken,
	}, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestPasswordRecovery() {
	s.signUpVerified("recover@example.com", "secret1")

	resp := s.call(http.MethodPost, "/api/v1/auth/recover", "", dto.EmailRequest{Email: "recover@example.com"}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	fragment := s.followLink(s.emailLink("recover@example.com"))
	s.Equal("recovery", fragment.Get("type"))

	resp = s.call(http.MethodPut, "/api/v1/auth/user", fragment.Get("access_token"), dto.UpdatePasswordRequest{Password: "newsecret"}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "recover@example.com", Password: "newsecret"}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestRecover_UnknownEmailIsSilent() {
	resp := s.call(http.MethodPost, "/api/v1/auth/recover", "", dto.EmailRequest{Email: "nobody@example.com"}, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestAuthorize_ProviderDisabled() {
	resp := s.call(http.MethodGet, "/api/v1/auth/authorize?provider=google&redirect_to=kanahhealth://cb&code_challenge=abc", "", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestMissingAPIKey() {
	resp, err := http.Post(s.BaseURL+"/api/v1/auth/login", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogin_RateLimited() {
	var last *http.Response
	for range 11 {
		last = s.call(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{
			Email: "flood@example.com", Password: "secret1",
		}, nil)
	}

	s.Equal(http.StatusTooManyRequests, last.StatusCode)
	s.NotEmpty(last.Header.Get("Retry-After"))
}
