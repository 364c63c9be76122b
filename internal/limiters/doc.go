// Package limiters implements brute-force protection counters on the
// ephemeral store.
package limiters
