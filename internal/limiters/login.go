package limiters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/TamagotchiFibi/TaskManagementAPI/kv"
)

// ErrThrottleUnavailable indicates the throttle backend is unreachable.
// Callers must treat it as a hard failure of the login attempt, never as
// permission to skip the check.
var ErrThrottleUnavailable = errors.New("login throttle unavailable")

// LoginState is the per-principal throttle state derived from the counter.
type LoginState int

const (
	// StateClear means no failure counter exists.
	StateClear LoginState = iota
	// StateWarned means failures were recorded but the threshold not reached.
	StateWarned
	// StateLocked means the threshold was reached; logins are rejected
	// before any credential check.
	StateLocked
)

// LoginConfig holds the lockout threshold and window.
type LoginConfig struct {
	MaxAttempts   int
	LockoutWindow time.Duration
}

// LoginLimiter tracks failed login attempts per principal. Each failure
// restarts the lockout window, so a sustained drip of failures keeps the
// principal locked.
type LoginLimiter struct {
	store  kv.Store
	config LoginConfig
}

func NewLoginLimiter(store kv.Store, cfg LoginConfig) *LoginLimiter {
	return &LoginLimiter{store: store, config: cfg}
}

func (l *LoginLimiter) key(username string) string {
	return "login_attempts:" + username
}

// Check reports whether a login attempt may proceed. False means locked.
func (l *LoginLimiter) Check(ctx context.Context, username string) (bool, error) {
	n, err := l.attempts(ctx, username)
	if err != nil {
		return false, err
	}
	return n < int64(l.config.MaxAttempts), nil
}

// RecordFailure increments the counter and restarts the lockout window.
// Returns true once the threshold is reached. The increment is atomic at
// the store, so two concurrent failures are both counted.
func (l *LoginLimiter) RecordFailure(ctx context.Context, username string) (bool, error) {
	n, err := l.store.Increment(ctx, l.key(username))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	if _, err := l.store.Expire(ctx, l.key(username), l.config.LockoutWindow); err != nil {
		return false, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return n >= int64(l.config.MaxAttempts), nil
}

// Reset clears the counter, returning the principal to StateClear. Called
// on every successful login regardless of current state.
func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	if _, err := l.store.Delete(ctx, l.key(username)); err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return nil
}

// State maps the current counter value onto the throttle state machine.
func (l *LoginLimiter) State(ctx context.Context, username string) (LoginState, error) {
	n, err := l.attempts(ctx, username)
	if err != nil {
		return StateClear, err
	}
	switch {
	case n == 0:
		return StateClear, nil
	case n < int64(l.config.MaxAttempts):
		return StateWarned, nil
	default:
		return StateLocked, nil
	}
}

// Attempts returns the current failure count, zero when absent or expired.
func (l *LoginLimiter) Attempts(ctx context.Context, username string) (int64, error) {
	return l.attempts(ctx, username)
}

func (l *LoginLimiter) attempts(ctx context.Context, username string) (int64, error) {
	data, err := l.store.Get(ctx, l.key(username))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt counter: %v", ErrThrottleUnavailable, err)
	}
	return n, nil
}
