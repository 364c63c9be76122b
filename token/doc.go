// Package token issues and verifies the signed, self-contained access and
// refresh tokens carried by API clients. Validity is determined purely by
// signature and expiry; no store lookup is involved, so verification is safe
// under arbitrary concurrency.
package token
