package taskauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
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

// Builder assembles an Engine. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	cfg       Config
	cfgSet    bool
	client    redis.UniversalClient
	store     kv.Store
	provider  UserProvider
	sink      AuditSink
	log       zerolog.Logger
	logSet    bool
	now       func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithRedis supplies the Redis client backing the ephemeral store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.client = client
	return b
}

// WithStore supplies an ephemeral store directly, bypassing Redis wiring.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithUserProvider supplies the persistence collaborator. Required.
func (b *Builder) WithUserProvider(provider UserProvider) *Builder {
	b.provider = provider
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger supplies the structured logger; defaults to a no-op logger.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	b.logSet = true
	return b
}

// WithClock overrides the time source, primarily for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration, wires all components, and returns a
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	cfg := b.cfg
	if !b.cfgSet {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, errors.New("taskauth: user provider required")
	}

	store := b.store
	if store == nil {
		client := b.client
		if client == nil && cfg.RedisURL != "" {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return nil, errors.New("taskauth: invalid redis URL")
			}
			client = redis.NewClient(opts)
		}
		if client == nil {
			return nil, errors.New("taskauth: redis client or store required")
		}
		store = kv.NewRedisStore(client)
	}

	hasher, err := password.New(cfg.Password)
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewManager(token.Config{
		Secret:     cfg.Token.Secret,
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	log := b.log
	if !b.logSet {
		log = zerolog.Nop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	m := internalmetrics.New(internalmetrics.Config{Enabled: cfg.Metrics.Enabled})

	return &Engine{
		config:   cfg,
		store:    store,
		provider: b.provider,
		hasher:   hasher,
		tokens:   tokens,
		throttle: limiters.NewLoginLimiter(store, limiters.LoginConfig{
			MaxAttempts:   cfg.Throttle.MaxAttempts,
			LockoutWindow: cfg.Throttle.LockoutWindow,
		}),
		resets: stores.NewResetStore(store, cfg.Reset.TTL),
		cache:  cache.New(store, cfg.Cache.TTL, log, m),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.sink),
		metrics: m,
		log:     log,
		now:     now,
	}, nil
}
