package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/prperemyshlev/kanah-health/internal/dto"
)

var linkRegex = regexp.MustCompile(`https?://\S+/api/v1/auth/verify\?\S+`)

var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// call sends a JSON request with the apikey header and decodes the JSON
// response into out when out is not nil.
func (s *Suite) call(method, path, token string, body, out any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.BaseURL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", testAPIKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// emailLink returns the newest link mailed to the address.
func (s *Suite) emailLink(to string) string {
	entries := s.Logs.FilterMessage("Email not sent (no SMTP configured)").All()
	for i := len(entries) - 1; i >= 0; i-- {
		fields := entries[i].ContextMap()
		if fields["to"] != to {
			continue
		}
		body, _ := fields["body"].(string)
		if link := linkRegex.FindString(body); link != "" {
			return link
		}
	}
	s.FailNow("no email link sent to " + to)
	return ""
}

// followLink opens an emailed link and returns the fragment of the redirect.
func (s *Suite) followLink(link string) url.Values {
	resp, err := noRedirect.Get(link)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	s.Require().NoError(err)
	fragment, err := url.ParseQuery(location.Fragment)
	s.Require().NoError(err)
	return fragment
}

// signUpVerified registers an account and confirms it through the emailed link.
func (s *Suite) signUpVerified(email, password string) dto.AuthResponse {
	resp := s.call(http.MethodPost, "/api/v1/auth/signup", "", dto.SignupRequest{
		Email:    email,
		Password: password,
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	fragment := s.followLink(s.emailLink(email))
	s.Require().NotEmpty(fragment.Get("access_token"))

	expiresIn, _ := strconv.Atoi(fragment.Get("expires_in"))
	return dto.AuthResponse{
		AccessToken:  fragment.Get("access_token"),
		RefreshToken: fragment.Get("refresh_token"),
		TokenType:    fragment.Get("token_type"),
		ExpiresIn:    expiresIn,
	}
}
