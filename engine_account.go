package warden

import (
	"context"
	"errors"
)

// Register creates a new identity. The email must be unused; on
// ErrDuplicateEmail no partial record is left behind, and the existing
// identity is untouched.
func (e *Engine) Register(ctx context.Context, email, pw string) (*Identity, error) {
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if err := e.checkPassword(pw); err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(pw)
	if err != nil {
		return nil, err
	}

	identity, err := e.store.Add(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.emit(ctx, "register", &Identity{Email: email}, false, err)
			e.metrics.Registration("duplicate")
			return nil, err
		}
		e.metrics.Registration("error")
		return nil, err
	}

	e.logger.InfoContext(ctx, "identity registered", "identity_id", identity.ID.String(), "email", identity.Email)
	e.emit(ctx, "register", identity, true, nil)
	e.metrics.Registration("success")
	return identity, nil
}
