package warden

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wardenauth/warden/internal/audit"
	"github.com/wardenauth/warden/internal/metrics"
	"github.com/wardenauth/warden/jwt"
	"github.com/wardenauth/warden/password"
	"github.com/wardenauth/warden/store"
)

// Engine is the authentication authority. It is the only component that
// touches the credential store and the password hasher; construct it
// with New().Build() and share one instance across handlers.
type Engine struct {
	config    Config
	store     store.Store
	hasher    *password.Hasher
	dummyHash string
	jwt       *jwt.Manager
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Close flushes the audit dispatcher. Safe on a nil engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Metrics exposes the engine's metrics collectors, nil when disabled.
func (e *Engine) Metrics() *metrics.Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// SessionCookieName is the cookie the HTTP surface stores session
// tokens under.
func (e *Engine) SessionCookieName() string {
	return e.config.Session.CookieName
}

// VerifyCredentials checks an email/password pair without creating a
// session. Unknown email and wrong password are indistinguishable, and
// both cost one hash verification.
func (e *Engine) VerifyCredentials(ctx context.Context, email, pw string) (*Identity, error) {
	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same work as the found path.
			_, _ = e.hasher.Verify(pw, e.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.hasher.Verify(pw, identity.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}

func (e *Engine) checkPassword(pw string) error {
	if len(pw) < e.config.Password.MinLength {
		return ErrPasswordPolicy
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, eventType string, identity *Identity, success bool, cause error) {
	event := audit.Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		IP:        ClientIP(ctx),
		Success:   success,
	}
	if identity != nil {
		event.IdentityID = identity.ID.String()
		event.Email = identity.Email
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	e.audit.Emit(ctx, event)
}
