// Package store defines the credential store contract for the warden
// engine and provides three implementations: an in-memory store for tests
// and development, a Redis-backed store, and a PostgreSQL-backed store.
//
// All implementations guarantee two atomicity properties the engine relies
// on: Add is atomic with respect to the email uniqueness check (no two
// concurrent Adds for the same email both succeed), and Update applies its
// field set all-or-nothing per identity. Session and reset tokens are
// stored only as SHA-256 digests; plaintext tokens never reach a store.
package store
