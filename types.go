package taskauth

import (
	"context"
	"io"

	internalaudit "github.com/TamagotchiFibi/TaskManagementAPI/internal/audit"
	internalmetrics "github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
)

// Roles recognized by the authorization checks.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the minimal account record the engine needs: identity,
// credential hash, role, and activation flag. The persistence layer owns
// everything else.
type Principal struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
}

// UserProvider is the persistence collaborator. Implementations return
// ErrPrincipalNotFound (possibly wrapped) when no principal matches; any
// other error is treated as an infrastructure failure.
type UserProvider interface {
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByUsername(ctx context.Context, username string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
	Create(ctx context.Context, p *Principal) (*Principal, error)
	UpdatePasswordHash(ctx context.Context, id, newHash string) error
}

// TokenPair is the access+refresh pair issued at login and on refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuditEvent is a structured security event emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink silently discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events on a channel for in-process consumers.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON-encoded event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies one engine counter.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess      = internalmetrics.MetricLoginSuccess
	MetricLoginFailure      = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited  = internalmetrics.MetricLoginRateLimited
	MetricRefreshSuccess    = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure    = internalmetrics.MetricRefreshFailure
	MetricTokenRejected     = internalmetrics.MetricTokenRejected
	MetricResetRequested    = internalmetrics.MetricResetRequested
	MetricResetRedeemed     = internalmetrics.MetricResetRedeemed
	MetricResetRejected     = internalmetrics.MetricResetRejected
	MetricRegisterSuccess   = internalmetrics.MetricRegisterSuccess
	MetricRegisterDuplicate = internalmetrics.MetricRegisterDuplicate
	MetricCacheHit          = internalmetrics.MetricCacheHit
	MetricCacheMiss         = internalmetrics.MetricCacheMiss
	MetricCacheInvalidation = internalmetrics.MetricCacheInvalidation
	MetricStoreFailure      = internalmetrics.MetricStoreFailure
)

// MetricsSnapshot is a point-in-time copy of all engine counters.
type MetricsSnapshot = internalmetrics.Snapshot
