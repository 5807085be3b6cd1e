package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/utils"
	"github.com/prperemyshlev/kanah-health/pkg/database"
	"github.com/redis/go-redis/v9"
)

// One-time token purposes.
const (
	PurposeSignup     = "signup"
	PurposeRecovery   = "recovery"
	PurposeOAuthState = "oauth_state"
	PurposeOAuthCode  = "oauth_code"
)

// OneTimeStore keeps short-lived single-use tokens in Redis. Only the token
// hash is used as key, so a Redis dump does not leak usable links.
type OneTimeStore struct {
	redis *database.Redis
}

func NewOneTimeStore(redis *database.Redis) *OneTimeStore {
	return &OneTimeStore{redis: redis}
}

func oneTimeKey(purpose, token string) string {
	return fmt.Sprintf("onetime:%s:%s", purpose, hashToken(token))
}

// Issue stores payload under a fresh random token and returns the token.
func (s *OneTimeStore) Issue(ctx context.Context, purpose string, payload any, ttl time.Duration) (string, error) {
	token, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", purpose, err)
	}

	if err := s.redis.Client.Set(ctx, oneTimeKey(purpose, token), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", purpose, err)
	}

	return token, nil
}

// Consume atomically reads and deletes the payload for token into dest.
// Unknown, expired and already used tokens all yield ErrInvalidToken.
func (s *OneTimeStore) Consume(ctx context.Context, purpose, token string, dest any) error {
	if token == "" {
		return ErrInvalidToken
	}

	data, err := s.redis.Client.GetDel(ctx, oneTimeKey(purpose, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to read %s token: %w", purpose, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", purpose, err)
	}
	return nil
}
