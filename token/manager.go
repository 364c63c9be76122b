package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed covers anything that fails to parse or whose signature
	// does not verify against the service secret.
	ErrMalformed = errors.New("token: malformed or bad signature")
	// ErrExpired indicates a structurally valid token whose expiry passed.
	ErrExpired = errors.New("token: expired")
	// ErrWrongKind indicates a refresh token where an access token was
	// required, or the reverse. The two kinds are never interchangeable.
	ErrWrongKind = errors.New("token: wrong token kind")
)

// Config carries the signing secret and lifetimes. The algorithm is HS256;
// the secret is deployment configuration, not part of the wire contract.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Claims is the wire claim set: registered sub/iat/exp plus the boolean
// refresh marker that distinguishes the two token kinds.
type Claims struct {
	Refresh bool `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens. Immutable after construction.
type Manager struct {
	config Config
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// IssueAccess signs a short-lived access token for subject, expiring at
// now + AccessTTL.
func (m *Manager) IssueAccess(subject string, now time.Time) (string, error) {
	return m.issue(subject, now, m.config.AccessTTL, false)
}

// IssueRefresh signs a long-lived refresh token for subject, expiring at
// now + RefreshTTL, with the refresh marker set.
func (m *Manager) IssueRefresh(subject string, now time.Time) (string, error) {
	return m.issue(subject, now, m.config.RefreshTTL, true)
}

func (m *Manager) issue(subject string, now time.Time, ttl time.Duration, refresh bool) (string, error) {
	claims := Claims{
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    m.config.Issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify checks signature and expiry against now and returns the embedded
// subject. requireRefresh demands the refresh marker; an access token in a
// refresh position (or the reverse) fails with ErrWrongKind. Every failure
// is terminal for the request.
func (m *Manager) Verify(tokenStr string, requireRefresh bool, now time.Time) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	if claims.Refresh != requireRefresh {
		return "", ErrWrongKind
	}
	return claims.Subject, nil
}
