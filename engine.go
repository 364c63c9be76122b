package taskauth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/TamagotchiFibi/TaskManagementAPI/cache"
	internalaudit "github.com/TamagotchiFibi/TaskManagementAPI/internal/audit"
	"github.com/TamagotchiFibi/TaskManagementAPI/internal/limiters"
	internalmetrics "github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
	"github.com/TamagotchiFibi/TaskManagementAPI/internal/stores"
	"github.com/TamagotchiFibi/TaskManagementAPI/kv"
	"github.com/TamagotchiFibi/TaskManagementAPI/password"
	"github.com/TamagotchiFibi/TaskManagementAPI/token"
)

// Audit event types emitted by the engine.
const (
	auditLoginSuccess     = "login_success"
	auditLoginFailure     = "login_failure"
	auditLoginRateLimited = "login_rate_limited"
	auditTokenRefresh     = "token_refresh"
	auditRegister         = "register"
	auditResetRequest     = "password_reset_request"
	auditResetRedeem      = "password_reset_redeem"
)

// Engine is the authentication core. Configure it through Builder and treat
// it as immutable afterwards; all methods are safe for concurrent use.
type Engine struct {
	config   Config
	store    kv.Store
	provider UserProvider
	hasher   *password.Hasher
	tokens   *token.Manager
	throttle *limiters.LoginLimiter
	resets   *stores.ResetStore
	cache    *cache.Cache
	audit    *internalaudit.Dispatcher
	metrics  *internalmetrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// Close flushes and stops the audit dispatcher. The Redis client is owned
// by the caller and stays open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Cache exposes the invalidation coordinator for the request layer's
// read-view caching.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Authenticate verifies a bearer access token and returns the subject
// identifier embedded in it. Verification is pure: signature and expiry
// only, no store round-trip. Any defect maps to ErrInvalidToken.
func (e *Engine) Authenticate(_ context.Context, accessToken string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	subject, err := e.tokens.Verify(accessToken, false, e.now())
	if err != nil {
		e.metrics.Inc(internalmetrics.MetricTokenRejected)
		return "", ErrInvalidToken
	}
	return subject, nil
}

// CurrentPrincipal verifies the access token and loads the full principal
// from the persistence collaborator. A subject that no longer resolves is
// reported as ErrInvalidToken, same as a defective token.
func (e *Engine) CurrentPrincipal(ctx context.Context, accessToken string) (*Principal, error) {
	subject, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	p, err := e.provider.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return p, nil
}

// RequireRole authenticates the token and asserts the principal is active
// and holds the given role. This is the explicit, composable replacement
// for route-decorator authorization: call it at the top of a handler and
// map the typed failure to a response.
func (e *Engine) RequireRole(ctx context.Context, accessToken, role string) (*Principal, error) {
	p, err := e.CurrentPrincipal(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrInactiveAccount
	}
	if p.Role != role {
		return nil, ErrPermissionDenied
	}
	return p, nil
}

// RequireAdmin is RequireRole for the admin role.
func (e *Engine) RequireAdmin(ctx context.Context, accessToken string) (*Principal, error) {
	return e.RequireRole(ctx, accessToken, RoleAdmin)
}

// InvalidatePrincipalCaches drops every cached read view owned by one
// principal. Called after admin-side mutations that can touch any of them.
func (e *Engine) InvalidatePrincipalCaches(ctx context.Context, principalID string) {
	e.cache.Invalidate(ctx,
		cache.Key(cache.ResourceUser, principalID),
		cache.Key(cache.ResourceUserTasks, principalID),
		cache.Key(cache.ResourceUserNotifications, principalID),
	)
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, subject string, success bool, cause error, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		Subject:   subject,
		Success:   success,
		Metadata:  metadata,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	e.audit.Emit(ctx, event)
}
