// Package taskauth is the authentication, session-token, and
// abuse-protection core of the Task Management API: Argon2id credential
// hashing, JWT access/refresh token issuance and verification, Redis-backed
// login throttling with timed lockout, single-use password-reset tokens,
// and cache invalidation for per-user read views.
//
// The package is the public surface. [Engine] methods are safe to call from
// multiple goroutines after construction through [Builder.Build]. Persistent
// user storage is an external collaborator supplied via [UserProvider];
// HTTP routing, request validation, and email delivery live in the
// embedding service.
//
// Failure messages deliberately collapse distinct internal causes: an
// unknown username and a wrong password both yield [ErrInvalidCredentials],
// every token defect yields [ErrInvalidToken], and a reset token that is
// unknown, expired, or already used yields [ErrResetInvalidOrExpired]. This
// resists account enumeration and token oracles; do not "improve" the
// messages.
package taskauth
