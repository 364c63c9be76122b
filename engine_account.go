package taskauth

import (
	"context"
	"errors"

	internalmetrics "github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
)

// Register creates a new active principal with the user role. Username and
// email must both be free; a clash on either returns ErrAccountExists
// without saying which field collided.
func (e *Engine) Register(ctx context.Context, username, email, secret string) (*Principal, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	if _, err := e.provider.GetByUsername(ctx, username); err == nil {
		e.metricInc(internalmetrics.MetricRegisterDuplicate)
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrPrincipalNotFound) {
		return nil, err
	}
	if _, err := e.provider.GetByEmail(ctx, email); err == nil {
		e.metricInc(internalmetrics.MetricRegisterDuplicate)
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrPrincipalNotFound) {
		return nil, err
	}

	hash, err := e.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	created, err := e.provider.Create(ctx, &Principal{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}

	e.metricInc(internalmetrics.MetricRegisterSuccess)
	e.emitAudit(ctx, auditRegister, username, true, nil, nil)
	e.log.Info().Str("username", username).Msg("account registered")
	return created, nil
}
