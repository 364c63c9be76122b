package taskauth

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/TamagotchiFibi/TaskManagementAPI/kv"
	"github.com/TamagotchiFibi/TaskManagementAPI/password"
)

// testClock is a controllable time source shared by the engine and the
// assertions of a single test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryProvider is an in-memory UserProvider for tests.
type memoryProvider struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*Principal
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{byID: make(map[string]*Principal)}
}

func (p *memoryProvider) GetByID(_ context.Context, id string) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if principal, ok := p.byID[id]; ok {
		copied := *principal
		return &copied, nil
	}
	return nil, ErrPrincipalNotFound
}

func (p *memoryProvider) GetByUsername(_ context.Context, username string) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, principal := range p.byID {
		if principal.Username == username {
			copied := *principal
			return &copied, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (p *memoryProvider) GetByEmail(_ context.Context, email string) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, principal := range p.byID {
		if principal.Email == email {
			copied := *principal
			return &copied, nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (p *memoryProvider) Create(_ context.Context, principal *Principal) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	copied := *principal
	copied.ID = strconv.Itoa(p.nextID)
	p.byID[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (p *memoryProvider) UpdatePasswordHash(_ context.Context, id, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	principal, ok := p.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	principal.PasswordHash = newHash
	return nil
}

func (p *memoryProvider) deactivate(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if principal, ok := p.byID[id]; ok {
		principal.Active = false
	}
}

// testConfig returns production defaults with a test secret and the
// cheapest Argon2 parameters the hasher accepts.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("test-secret-key")
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

type testEnv struct {
	engine   *Engine
	redis    *miniredis.Miniredis
	provider *memoryProvider
	clock    *testClock
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testEnv {
	return buildTestEngine(t, mutate, nil)
}

func newTestEngineWithSink(t *testing.T, sink AuditSink) *testEnv {
	return buildTestEngine(t, nil, sink)
}

func buildTestEngine(t *testing.T, mutate func(*Config), sink AuditSink) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	provider := newMemoryProvider()
	clock := newTestClock()

	builder := NewBuilder().
		WithConfig(cfg).
		WithStore(kv.NewRedisStore(client)).
		WithUserProvider(provider).
		WithClock(clock.Now)
	if sink != nil {
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, redis: mr, provider: provider, clock: clock}
}

// register creates an account through the public API and returns it.
func (env *testEnv) register(t *testing.T, username, email, secret string) *Principal {
	t.Helper()
	principal, err := env.engine.Register(context.Background(), username, email, secret)
	if err != nil {
		t.Fatalf("Register(%q): %v", username, err)
	}
	return principal
}
