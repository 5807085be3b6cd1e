package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/dto"
)

// GetUser returns nil, nil when the user row does not exist yet.
func (c *Client) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	var user dto.UserResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/users/" + url.PathEscape(userID),
		authed: true,
	}, &user)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpsertUser(ctx context.Context, userID string, req dto.UpsertUserRequest) (*dto.UserResponse, error) {
	var user dto.UserResponse
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/v1/users/" + url.PathEscape(userID),
		body:   req,
		authed: true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateMother(ctx context.Context, req dto.CreateMotherRequest) (*domain.Mother, error) {
	var mother domain.Mother
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/v1/mothers", body: req, authed: true}, &mother)
	if err != nil {
		return nil, err
	}
	return &mother, nil
}

func (c *Client) CreateBabies(ctx context.Context, babies []dto.BabyInput) ([]domain.Baby, error) {
	var created []domain.Baby
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/v1/babies", body: babies, authed: true}, &created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) OnboardingStatus(ctx context.Context) (*domain.OnboardingStatus, error) {
	var status domain.OnboardingStatus
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/onboarding/status", authed: true}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
