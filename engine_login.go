package taskauth

import (
	"context"
	"errors"
	"fmt"

	internalmetrics "github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
)

// Login authenticates a username/secret pair and returns a fresh token
// pair. The throttle gate runs before any credential work; an unreachable
// throttle fails the attempt closed. Unknown principal and wrong secret
// both surface as ErrInvalidCredentials so the caller learns nothing about
// which usernames exist.
func (e *Engine) Login(ctx context.Context, username, secret string) (TokenPair, error) {
	if e == nil || e.throttle == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	allowed, err := e.throttle.Check(ctx, username)
	if err != nil {
		e.metricInc(internalmetrics.MetricStoreFailure)
		e.log.Error().Err(err).Str("username", username).Msg("login throttle check failed")
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !allowed {
		e.metricInc(internalmetrics.MetricLoginRateLimited)
		e.emitAudit(ctx, auditLoginRateLimited, username, false, ErrRateLimited, nil)
		return TokenPair{}, ErrRateLimited
	}

	principal, err := e.provider.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return TokenPair{}, e.failLogin(ctx, username, ErrInvalidCredentials)
		}
		return TokenPair{}, err
	}

	ok, err := e.hasher.Verify(secret, principal.PasswordHash)
	if err != nil || !ok {
		return TokenPair{}, e.failLogin(ctx, username, ErrInvalidCredentials)
	}
	if !principal.Active {
		return TokenPair{}, e.failLogin(ctx, username, ErrInactiveAccount)
	}

	if err := e.throttle.Reset(ctx, username); err != nil {
		e.metricInc(internalmetrics.MetricStoreFailure)
		e.log.Error().Err(err).Str("username", username).Msg("login throttle reset failed")
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.issuePair(username)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(internalmetrics.MetricLoginSuccess)
	e.emitAudit(ctx, auditLoginSuccess, username, true, nil, nil)
	e.log.Info().Str("username", username).Msg("login succeeded")
	return pair, nil
}

// failLogin records the failed attempt and returns cause, or
// ErrStoreUnavailable when the failure itself cannot be recorded. The
// attempt counts the same whether the username exists or not.
func (e *Engine) failLogin(ctx context.Context, username string, cause error) error {
	locked, err := e.throttle.RecordFailure(ctx, username)
	if err != nil {
		e.metricInc(internalmetrics.MetricStoreFailure)
		e.log.Error().Err(err).Str("username", username).Msg("login failure not recorded")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(internalmetrics.MetricLoginFailure)
	e.emitAudit(ctx, auditLoginFailure, username, false, cause, map[string]string{
		"locked": fmt.Sprintf("%t", locked),
	})
	e.log.Warn().Str("username", username).Bool("locked", locked).Msg("login failed")
	return cause
}

// Refresh exchanges a valid refresh token for a fresh pair. An access token
// presented here is rejected the same way as garbage. The old refresh token
// stays valid until its own expiry; rotation without revocation keeps the
// flow stateless.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || e.tokens == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	subject, err := e.tokens.Verify(refreshToken, true, e.now())
	if err != nil {
		e.metricInc(internalmetrics.MetricRefreshFailure)
		e.emitAudit(ctx, auditTokenRefresh, "", false, ErrInvalidToken, nil)
		return TokenPair{}, ErrInvalidToken
	}

	pair, err := e.issuePair(subject)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(internalmetrics.MetricRefreshSuccess)
	e.emitAudit(ctx, auditTokenRefresh, subject, true, nil, nil)
	return pair, nil
}

func (e *Engine) issuePair(subject string) (TokenPair, error) {
	now := e.now()
	access, err := e.tokens.IssueAccess(subject, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := e.tokens.IssueRefresh(subject, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
