package taskauth

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/TamagotchiFibi/TaskManagementAPI/password"
)

// Config groups every tunable of the engine. Zero values are filled from
// DefaultConfig during Build; only the token secret has no default.
type Config struct {
	// RedisURL is used to dial Redis when no client or store is supplied
	// to the Builder. Format: redis://host:port/db.
	RedisURL string

	Token    TokenConfig
	Password password.Config
	Throttle ThrottleConfig
	Reset    ResetConfig
	Cache    CacheConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig configures signing and lifetimes. The secret and algorithm
// are deployment configuration, not part of the token contract.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// ThrottleConfig configures the login lockout state machine.
type ThrottleConfig struct {
	MaxAttempts   int
	LockoutWindow time.Duration
}

// ResetConfig configures password-reset token lifetime.
type ResetConfig struct {
	TTL time.Duration
}

// CacheConfig configures the snapshot TTL for derived read views.
type CacheConfig struct {
	TTL time.Duration
}

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the deployment defaults: 30-minute access tokens,
// 7-day refresh tokens, lockout after 5 failures within a 15-minute window,
// 1-hour reset tokens, 5-minute cache snapshots.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: password.DefaultConfig(),
		Throttle: ThrottleConfig{
			MaxAttempts:   5,
			LockoutWindow: 15 * time.Minute,
		},
		Reset: ResetConfig{TTL: time.Hour},
		Cache: CacheConfig{TTL: 5 * time.Minute},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// FromEnv builds a Config from the environment, loading a .env file first
// when present. Variable names match the original deployment: SECRET_KEY,
// ACCESS_TOKEN_EXPIRE_MINUTES, REFRESH_TOKEN_EXPIRE_DAYS,
// MAX_LOGIN_ATTEMPTS, LOCKOUT_TIME (minutes), CACHE_TTL (seconds),
// REDIS_URL. Unset variables keep their defaults.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return cfg, errors.New("taskauth: SECRET_KEY is required")
	}
	cfg.Token.Secret = []byte(secret)
	cfg.RedisURL = os.Getenv("REDIS_URL")

	var err error
	if cfg.Token.AccessTTL, err = envDuration("ACCESS_TOKEN_EXPIRE_MINUTES", time.Minute, cfg.Token.AccessTTL); err != nil {
		return cfg, err
	}
	if cfg.Token.RefreshTTL, err = envDuration("REFRESH_TOKEN_EXPIRE_DAYS", 24*time.Hour, cfg.Token.RefreshTTL); err != nil {
		return cfg, err
	}
	if cfg.Throttle.LockoutWindow, err = envDuration("LOCKOUT_TIME", time.Minute, cfg.Throttle.LockoutWindow); err != nil {
		return cfg, err
	}
	if cfg.Cache.TTL, err = envDuration("CACHE_TTL", time.Second, cfg.Cache.TTL); err != nil {
		return cfg, err
	}
	if raw := os.Getenv("MAX_LOGIN_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return cfg, errors.New("taskauth: invalid MAX_LOGIN_ATTEMPTS")
		}
		cfg.Throttle.MaxAttempts = n
	}

	return cfg, nil
}

func envDuration(name string, unit, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback, errors.New("taskauth: invalid " + name)
	}
	return time.Duration(n) * unit, nil
}

func (c Config) validate() error {
	if len(c.Token.Secret) == 0 {
		return errors.New("taskauth: token secret required")
	}
	if c.Throttle.MaxAttempts <= 0 {
		return errors.New("taskauth: throttle max attempts must be positive")
	}
	if c.Throttle.LockoutWindow <= 0 {
		return errors.New("taskauth: lockout window must be positive")
	}
	if c.Reset.TTL <= 0 {
		return errors.New("taskauth: reset TTL must be positive")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("taskauth: cache TTL must be positive")
	}
	return nil
}
