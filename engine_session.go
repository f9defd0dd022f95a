package warden

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"

	"github.com/wardenauth/warden/store"
	"github.com/wardenauth/warden/token"
)

// Login verifies the credentials and starts a session, returning the
// plaintext session token. Each successful login overwrites any prior
// session token, so an identity has at most one active session.
func (e *Engine) Login(ctx context.Context, email, pw string) (string, error) {
	identity, err := e.VerifyCredentials(ctx, email, pw)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.emit(ctx, "login", &Identity{Email: email}, false, err)
			e.metrics.Login("invalid")
		} else {
			e.metrics.Login("error")
		}
		return "", err
	}

	sessionToken, err := token.NewSession()
	if err != nil {
		return "", err
	}

	err = e.store.Update(ctx, identity.ID, store.Fields{
		SessionHash: store.Set(token.Hash(sessionToken)),
	})
	if err != nil {
		e.metrics.Login("error")
		return "", err
	}

	e.logger.InfoContext(ctx, "session created", "identity_id", identity.ID.String(), "email", identity.Email)
	e.emit(ctx, "login", identity, true, nil)
	e.metrics.Login("success")
	return sessionToken, nil
}

// ResolveSession maps a session token to its identity. Absent, unknown,
// and logged-out tokens all yield ErrNoSession.
func (e *Engine) ResolveSession(ctx context.Context, sessionToken string) (*Identity, error) {
	if sessionToken == "" {
		return nil, ErrNoSession
	}

	identity, err := e.store.FindBySessionHash(ctx, token.Hash(sessionToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.emit(ctx, "session_resolve", nil, false, ErrNoSession)
			return nil, ErrNoSession
		}
		return nil, err
	}
	return identity, nil
}

// Logout clears the identity's session token. Logging out an identity
// with no active session is not an error.
func (e *Engine) Logout(ctx context.Context, id ulid.ULID) error {
	err := e.store.Update(ctx, id, store.Fields{SessionHash: store.Clear()})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	e.logger.InfoContext(ctx, "session destroyed", "identity_id", id.String())
	e.emit(ctx, "logout", &Identity{ID: id}, true, nil)
	e.metrics.Logout()
	return nil
}

// IssueAccessToken mints a short-lived JWT for an identity with an
// active session. The bearer can present it to the gate instead of the
// session cookie.
func (e *Engine) IssueAccessToken(ctx context.Context, identity *Identity) (string, error) {
	if e.jwt == nil {
		return "", ErrAccessTokensDisabled
	}
	return e.jwt.Issue(identity.ID.String(), identity.Email)
}

// ValidateAccessToken verifies a JWT and loads its identity from the
// store, so revoked accounts cannot ride out a token's TTL.
func (e *Engine) ValidateAccessToken(ctx context.Context, tokenStr string) (*Identity, error) {
	if e.jwt == nil {
		return nil, ErrAccessTokensDisabled
	}

	claims, err := e.jwt.Parse(tokenStr)
	if err != nil {
		return nil, ErrNoSession
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrNoSession
	}

	identity, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return identity, nil
}
