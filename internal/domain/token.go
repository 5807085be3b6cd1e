package domain

import "time"

// TokenClaims is what the API trusts about a validated access token.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// TTL returns how long the token stays valid after now, or zero.
func (tc TokenClaims) TTL(now time.Time) time.Duration {
	left := time.Unix(tc.Exp, 0).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
