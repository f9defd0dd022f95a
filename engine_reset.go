package warden

import (
	"context"
	"errors"

	"github.com/wardenauth/warden/store"
	"github.com/wardenauth/warden/token"
)

// RequestPasswordReset issues a reset token for the email's identity,
// overwriting any pending one. Unknown emails yield ErrNotFound.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.emit(ctx, "reset_requested", &Identity{Email: email}, false, err)
			e.metrics.ResetRequested("unknown_email")
			return "", ErrNotFound
		}
		e.metrics.ResetRequested("error")
		return "", err
	}

	resetToken, err := token.NewReset()
	if err != nil {
		return "", err
	}

	err = e.store.Update(ctx, identity.ID, store.Fields{
		ResetHash: store.Set(token.Hash(resetToken)),
	})
	if err != nil {
		e.metrics.ResetRequested("error")
		return "", err
	}

	e.logger.InfoContext(ctx, "password reset requested", "identity_id", identity.ID.String(), "email", identity.Email)
	e.emit(ctx, "reset_requested", identity, true, nil)
	e.metrics.ResetRequested("success")
	return resetToken, nil
}

// ConsumePasswordReset sets a new password for the identity holding the
// reset token. The token is cleared in the same update, enforcing single
// use; a stale or unknown token yields ErrInvalidResetToken.
func (e *Engine) ConsumePasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return ErrInvalidResetToken
	}
	if err := e.checkPassword(newPassword); err != nil {
		return err
	}

	identity, err := e.store.FindByResetHash(ctx, token.Hash(resetToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.emit(ctx, "reset_consumed", nil, false, ErrInvalidResetToken)
			e.metrics.ResetCompleted("invalid_token")
			return ErrInvalidResetToken
		}
		e.metrics.ResetCompleted("error")
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = e.store.Update(ctx, identity.ID, store.Fields{
		PasswordHash: store.Set(hash),
		ResetHash:    store.Clear(),
	})
	if err != nil {
		e.metrics.ResetCompleted("error")
		return err
	}

	e.logger.InfoContext(ctx, "password updated", "identity_id", identity.ID.String(), "email", identity.Email)
	e.emit(ctx, "reset_consumed", identity, true, nil)
	e.metrics.ResetCompleted("success")
	return nil
}
