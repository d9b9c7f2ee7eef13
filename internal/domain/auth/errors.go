package auth

import "peopleops/internal/domain/apperr"

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrInvalidCredentials, "invalid_credentials", "invalid credentials")
	ErrSessionExpired     = apperr.New(apperr.ErrUnauthenticated, "session_expired", "session expired")
	ErrInvalidToken       = apperr.New(apperr.ErrUnauthenticated, "invalid_token", "invalid or expired token")
	ErrMFARequired        = apperr.New(apperr.ErrInvalidCredentials, "mfa_required", "mfa code required")
	ErrMFAInvalid         = apperr.New(apperr.ErrInvalidCredentials, "mfa_invalid", "invalid mfa code")
	ErrMFAUnavailable     = apperr.New(apperr.ErrValidation, "mfa_unavailable", "mfa requires encryption key")
	ErrMFANotSetUp        = apperr.New(apperr.ErrValidation, "mfa_missing", "mfa setup required")
	ErrMFAAlreadyEnabled  = apperr.New(apperr.ErrConflict, "mfa_already_enabled", "mfa is already enabled; disable it first")
	ErrIdentityNotFound   = apperr.New(apperr.ErrNotFound, "identity_not_found", "identity not found")
	ErrUsernameTaken      = apperr.New(apperr.ErrConflict, "username_taken", "username already in use")
	ErrInvalidAccount     = apperr.New(apperr.ErrValidation, "invalid_account", "invalid account fields")
)
