// Package password provides one-way salted credential hashing with Argon2id
// and constant-time verification. Hashes are encoded as PHC strings, so the
// parameters travel with the hash and older credentials stay verifiable
// after a cost change.
package password
