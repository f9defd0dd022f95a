package warden

import (
	"errors"

	"github.com/wardenauth/warden/store"
)

var (
	// ErrDuplicateEmail is returned by Register when the email is taken.
	ErrDuplicateEmail = store.ErrDuplicateEmail
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession is returned by ResolveSession for an absent or unknown
	// session token.
	ErrNoSession = errors.New("no session")
	// ErrInvalidResetToken is returned by ConsumePasswordReset for an
	// unknown or already-consumed reset token.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrNotFound is returned by RequestPasswordReset for an unknown email.
	ErrNotFound = store.ErrNotFound
	// ErrStorage wraps credential store unavailability. It maps to a 5xx
	// response and is never retried inside the engine.
	ErrStorage = store.ErrUnavailable
	// ErrPasswordPolicy is returned when a password fails the configured
	// minimum length.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrAccessTokensDisabled is returned by the access-token operations
	// when no JWT manager was configured.
	ErrAccessTokensDisabled = errors.New("access tokens disabled")
)
