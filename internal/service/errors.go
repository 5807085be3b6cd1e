package service

import "errors"

// Messages mirror what the mobile client already matches on.
var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrUserExists         = errors.New("User already registered")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("not allowed to access this resource")
	ErrInvalidInput       = errors.New("invalid input")
	ErrProviderDisabled   = errors.New("oauth provider is not enabled")
	ErrInvalidRedirect    = errors.New("redirect_to is not allowed")
	ErrInvalidGrant       = errors.New("invalid grant")
)
