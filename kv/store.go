package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the key is absent or its TTL has lapsed.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable indicates the backend could not be reached. Callers on
	// security paths must fail closed on it; cache paths may degrade.
	ErrUnavailable = errors.New("kv: store unavailable")
)

const (
	// TTLNone is returned by TTL for keys that exist without an expiry.
	TTLNone = time.Duration(-1)
	// TTLMissing is returned by TTL for absent keys.
	TTLMissing = time.Duration(-2)
)

// Store is the contract every component uses to reach the ephemeral store.
//
// All operations may block on a network round-trip and must honor ctx.
// Increment is atomic at the store level; two concurrent increments of the
// same key are both recorded.
type Store interface {
	// Set writes value under key. ttl > 0 applies an expiry atomically with
	// the write; ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the stored value, or ErrNotFound once the key is absent or
	// expired. An expired key is never observable.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Increment adds one to the integer at key, creating it at zero first.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets a fresh TTL on an existing key; false when key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL reports the remaining lifetime, TTLNone for no expiry, TTLMissing
	// for absent keys.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Keys lists keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Flush drops every key.
	Flush(ctx context.Context) error
}
