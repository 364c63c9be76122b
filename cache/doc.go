// Package cache coordinates best-effort read caching of derived resources
// and their invalidation on mutation. Cached snapshots are disposable: a
// miss or a store failure always degrades to the source of truth, never to
// an error.
package cache
