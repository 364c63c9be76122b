package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/TamagotchiFibi/TaskManagementAPI/kv"
)

func newTestLimiter(t *testing.T) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(kv.NewRedisStore(client), LoginConfig{
		MaxAttempts:   5,
		LockoutWindow: 15 * time.Minute,
	}), mr
}

func TestLimiterStateMachine(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	state, err := limiter.State(ctx, "alice")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != StateClear {
		t.Fatalf("state = %v, want StateClear", state)
	}

	for i := 1; i <= 4; i++ {
		locked, err := limiter.RecordFailure(ctx, "alice")
		if err != nil {
			t.Fatalf("RecordFailure %d: %v", i, err)
		}
		if locked {
			t.Fatalf("locked at attempt %d", i)
		}
	}

	state, _ = limiter.State(ctx, "alice")
	if state != StateWarned {
		t.Fatalf("state = %v, want StateWarned", state)
	}

	locked, err := limiter.RecordFailure(ctx, "alice")
	if err != nil {
		t.Fatalf("RecordFailure 5: %v", err)
	}
	if !locked {
		t.Fatal("expected lock at the fifth failure")
	}

	state, _ = limiter.State(ctx, "alice")
	if state != StateLocked {
		t.Fatalf("state = %v, want StateLocked", state)
	}

	allowed, err := limiter.Check(ctx, "alice")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if allowed {
		t.Fatal("locked principal must not be allowed")
	}
}

func TestLimiterWindowRestartsPerFailure(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := limiter.RecordFailure(ctx, "alice"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	// Ten minutes into the window, another failure pushes the expiry out
	// again, so the counter survives past the original deadline.
	mr.FastForward(10 * time.Minute)
	if _, err := limiter.RecordFailure(ctx, "alice"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	mr.FastForward(10 * time.Minute)
	allowed, err := limiter.Check(ctx, "alice")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if allowed {
		t.Fatal("lock must hold 10 minutes after the last failure")
	}

	mr.FastForward(6 * time.Minute)
	allowed, err = limiter.Check(ctx, "alice")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !allowed {
		t.Fatal("lock must expire 15 minutes after the last failure")
	}
}

func TestLimiterReset(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = limiter.RecordFailure(ctx, "alice")
	}
	if err := limiter.Reset(ctx, "alice"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	n, err := limiter.Attempts(ctx, "alice")
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if n != 0 {
		t.Fatalf("attempts = %d, want 0", n)
	}
}

func TestLimiterIsolatesPrincipals(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = limiter.RecordFailure(ctx, "alice")
	}

	allowed, err := limiter.Check(ctx, "bob")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !allowed {
		t.Fatal("lock on alice must not affect bob")
	}
}

func TestLimiterUnavailable(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	mr.Close()

	if _, err := limiter.Check(ctx, "alice"); !errors.Is(err, ErrThrottleUnavailable) {
		t.Fatalf("Check err = %v, want ErrThrottleUnavailable", err)
	}
	if _, err := limiter.RecordFailure(ctx, "alice"); !errors.Is(err, ErrThrottleUnavailable) {
		t.Fatalf("RecordFailure err = %v, want ErrThrottleUnavailable", err)
	}
}
