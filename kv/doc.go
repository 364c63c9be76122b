// Package kv defines the ephemeral key-value store backing security state
// (login throttling, reset tokens) and derived-read caching.
//
// The Store interface is the seam between business logic and the transient
// backend: production code wires RedisStore, tests substitute miniredis
// through the same Redis client. Business logic must never reach a
// process-wide client directly.
package kv
