// Package stores holds TTL-bounded security records kept in the ephemeral
// store, currently the single-use password-reset tokens.
package stores
