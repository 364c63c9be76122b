package taskauth

import "errors"

var (
	// ErrEngineNotReady is returned when a required dependency was not wired.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrRateLimited is returned while a login lockout is active.
	ErrRateLimited = errors.New("too many login attempts")
	// ErrInvalidCredentials covers both an unknown principal and a wrong
	// secret; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount is returned for a deactivated principal.
	ErrInactiveAccount = errors.New("inactive account")
	// ErrInvalidToken covers malformed, expired, and wrong-kind tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrResetInvalidOrExpired covers a reset token that is unknown,
	// expired, or already redeemed.
	ErrResetInvalidOrExpired = errors.New("invalid or expired reset token")
	// ErrStoreUnavailable is returned when the ephemeral store cannot be
	// reached on a security path. Such requests fail closed.
	ErrStoreUnavailable = errors.New("ephemeral store unavailable")
	// ErrPrincipalNotFound is returned by UserProvider implementations and
	// reset requests when no principal matches.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrAccountExists is returned on registration with a taken username
	// or email.
	ErrAccountExists = errors.New("account already exists")
	// ErrPermissionDenied is returned by role checks.
	ErrPermissionDenied = errors.New("permission denied")
)
