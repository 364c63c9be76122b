package taskauth

import (
	"context"
	"errors"
	"fmt"

	internalmetrics "github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
	"github.com/TamagotchiFibi/TaskManagementAPI/internal/stores"
)

// RequestPasswordReset issues a single-use reset token for the principal
// owning email. The token is returned to the caller for out-of-band
// delivery; the engine never sends mail. An unknown email returns
// ErrPrincipalNotFound so the delivery layer can decide whether to hide it.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil || e.resets == nil {
		return "", ErrEngineNotReady
	}

	principal, err := e.provider.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := e.resets.Issue(ctx, principal.ID)
	if err != nil {
		e.metricInc(internalmetrics.MetricStoreFailure)
		e.log.Error().Err(err).Msg("reset token issue failed")
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(internalmetrics.MetricResetRequested)
	e.emitAudit(ctx, auditResetRequest, principal.Username, true, nil, nil)
	e.log.Info().Str("user_id", principal.ID).Msg("password reset requested")
	return token, nil
}

// RedeemPasswordReset consumes token and replaces the principal's
// credential with newSecret. The token is claimed before the new hash is
// derived, so a second presentation fails even while the first is still in
// flight. Unknown, expired, and already-used tokens are indistinguishable
// to the caller.
func (e *Engine) RedeemPasswordReset(ctx context.Context, token, newSecret string) error {
	if e == nil || e.resets == nil {
		return ErrEngineNotReady
	}

	userID, err := e.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, stores.ErrResetNotFound) {
			e.metricInc(internalmetrics.MetricResetRejected)
			e.emitAudit(ctx, auditResetRedeem, "", false, ErrResetInvalidOrExpired, nil)
			return ErrResetInvalidOrExpired
		}
		e.metricInc(internalmetrics.MetricStoreFailure)
		e.log.Error().Err(err).Msg("reset token consume failed")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	principal, err := e.provider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			// Account deleted after issuance; the token is already burned.
			e.metricInc(internalmetrics.MetricResetRejected)
			return ErrResetInvalidOrExpired
		}
		return err
	}

	hash, err := e.hasher.Hash(newSecret)
	if err != nil {
		return err
	}
	if err := e.provider.UpdatePasswordHash(ctx, principal.ID, hash); err != nil {
		return err
	}

	// A successful reset clears any active lockout so the principal can log
	// in with the new credential immediately.
	if err := e.throttle.Reset(ctx, principal.Username); err != nil {
		e.metricInc(internalmetrics.MetricStoreFailure)
		e.log.Error().Err(err).Str("username", principal.Username).Msg("lockout clear after reset failed")
	}

	e.metricInc(internalmetrics.MetricResetRedeemed)
	e.emitAudit(ctx, auditResetRedeem, principal.Username, true, nil, nil)
	e.log.Info().Str("user_id", principal.ID).Msg("password reset redeemed")
	return nil
}
