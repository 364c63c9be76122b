package taskauth

import (
	"context"
	"errors"
	"testing"
	"time"

	internalmetrics "github.com/TamagotchiFibi/TaskManagementAPI/internal/metrics"
)

func TestLoginSuccess(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")

	pair, err := env.engine.Login(context.Background(), "alice", "Sw0rd!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	subject, err := env.engine.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("subject = %q, want alice", subject)
	}
}

func TestLoginWrongSecret(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")

	_, err := env.engine.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	env := newTestEngine(t, nil)

	_, err := env.engine.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	// Failures against unknown usernames still count toward lockout.
	n, err := env.engine.throttle.Attempts(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if n != 1 {
		t.Fatalf("attempts = %d, want 1", n)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	env := newTestEngine(t, nil)
	p := env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	env.provider.deactivate(p.ID)

	_, err := env.engine.Login(context.Background(), "alice", "Sw0rd!x")
	if !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("err = %v, want ErrInactiveAccount", err)
	}
}

func TestLoginLockoutAfterMaxFailures(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := env.engine.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// The correct secret is rejected without touching the credential while
	// the lockout holds.
	if _, err := env.engine.Login(ctx, "alice", "Sw0rd!x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	snap := env.engine.MetricsSnapshot()
	if got := snap.Get(internalmetrics.MetricLoginRateLimited); got != 1 {
		t.Fatalf("rate limited counter = %d, want 1", got)
	}
}

func TestLoginLockoutExpires(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(ctx, "alice", "wrong")
	}
	if _, err := env.engine.Login(ctx, "alice", "Sw0rd!x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	env.redis.FastForward(15*time.Minute + time.Second)

	if _, err := env.engine.Login(ctx, "alice", "Sw0rd!x"); err != nil {
		t.Fatalf("login after window expiry: %v", err)
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = env.engine.Login(ctx, "alice", "wrong")
	}
	if _, err := env.engine.Login(ctx, "alice", "Sw0rd!x"); err != nil {
		t.Fatalf("login at attempt 4: %v", err)
	}

	n, err := env.engine.throttle.Attempts(ctx, "alice")
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if n != 0 {
		t.Fatalf("attempts after success = %d, want 0", n)
	}
}

func TestLoginFailsClosedOnStoreOutage(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")

	env.redis.Close()

	_, err := env.engine.Login(context.Background(), "alice", "Sw0rd!x")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	pair, err := env.engine.Login(ctx, "alice", "Sw0rd!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	env.clock.Advance(time.Minute)

	next, err := env.engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.AccessToken == pair.AccessToken {
		t.Fatal("refresh must mint a new access token")
	}

	subject, err := env.engine.Authenticate(ctx, next.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("subject = %q, want alice", subject)
	}

	// Rotation without revocation: the original refresh token still works.
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second refresh with original token: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	pair, err := env.engine.Login(ctx, "alice", "Sw0rd!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := env.engine.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	pair, err := env.engine.Login(ctx, "alice", "Sw0rd!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := env.engine.Authenticate(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "alice", "alice@example.com", "Sw0rd!x")
	ctx := context.Background()

	pair, err := env.engine.Login(ctx, "alice", "Sw0rd!x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	env.clock.Advance(31 * time.Minute)

	if _, err := env.engine.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh token must outlive the access token: %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	env := newTestEngine(t, nil)

	if _, err := env.engine.Authenticate(context.Background(), "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
