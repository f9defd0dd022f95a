package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrNotFound is returned when no identity matches the lookup.
	ErrNotFound = errors.New("identity not found")
	// ErrDuplicateEmail is returned by Add when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnavailable is returned when the underlying storage cannot be reached.
	// It is always surfaced, never swallowed.
	ErrUnavailable = errors.New("credential store unavailable")
)

// Identity is a registered user record. SessionHash and ResetHash hold the
// SHA-256 digest of the active session token and pending reset token
// respectively; empty means absent.
type Identity struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	SessionHash  string
	ResetHash    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSession reports whether a session is active for the identity.
func (id *Identity) HasSession() bool { return id.SessionHash != "" }

// HasPendingReset reports whether a password reset is pending.
func (id *Identity) HasPendingReset() bool { return id.ResetHash != "" }

// Fields is a partial update. Nil members are left untouched; a pointer to
// the empty string clears the stored value.
type Fields struct {
	PasswordHash *string
	SessionHash  *string
	ResetHash    *string
}

// IsZero reports whether the update would touch nothing.
func (f Fields) IsZero() bool {
	return f.PasswordHash == nil && f.SessionHash == nil && f.ResetHash == nil
}

// Set is a convenience for building Fields values.
func Set(v string) *string { return &v }

// Clear marks a field for explicit clearing.
func Clear() *string { v := ""; return &v }

// Store is the credential store contract. Every lookup is a single-field
// exact match returning at most one identity; absence is ErrNotFound.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add creates a new identity. The email uniqueness check and the
	// insert are atomic against concurrent Adds.
	Add(ctx context.Context, email, passwordHash string) (*Identity, error)

	FindByID(ctx context.Context, id ulid.ULID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindBySessionHash(ctx context.Context, hash string) (*Identity, error)
	FindByResetHash(ctx context.Context, hash string) (*Identity, error)

	// Update applies fields to the identity all-or-nothing. Updating an
	// unknown identity is ErrNotFound.
	Update(ctx context.Context, id ulid.ULID, fields Fields) error
}
