// Package middleware exposes the HTTP request gate built on top of
// warden.Engine.
//
// # Guard
//
// [Guard] wraps a handler and, for every non-exempt path, tries to
// resolve an identity from the request's credential material in order:
// Basic authorization (verified against the credential store, no session
// created), Bearer token (access token, then opaque session token), and
// finally the session cookie. The resolved identity is injected into the
// request context for [IdentityFromContext].
//
// A gated request with no credential material at all is answered 401; a
// request that presented material that did not resolve is answered 403.
// Callers can distinguish "you didn't try" from "you tried and failed".
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself: all decisions are delegated to
// the engine's verify and resolve operations.
package middleware
