// Package warden is a session-authentication authority: registration,
// password login, single-active-session management, and single-use
// password resets over a pluggable credential store.
//
// Build an Engine with the Builder, then mount middleware.Guard in front
// of the handlers that need an authenticated identity:
//
//	engine, err := warden.New().
//		WithStore(store.NewMemory()).
//		Build()
//
// Subpackages hold the moving parts: password (argon2id hashing), token
// (session and reset token issuance), store (memory, Redis, and Postgres
// credential stores), jwt (short-lived access tokens), middleware (the
// HTTP request gate), and redact (PII log scrubbing).
package warden
