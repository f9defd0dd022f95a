package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wardenauth/warden"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity the Guard attached to a
// request that passed the gate.
func IdentityFromContext(ctx context.Context) (*warden.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*warden.Identity)
	return identity, ok
}

// Guard gates requests behind the engine. Paths matching an exempt
// pattern pass through untouched; everything else must resolve an
// identity.
type Guard struct {
	engine  *warden.Engine
	exempt  []string
	logger  *slog.Logger
	statusf func(int) // observation hook for metrics, may be nil
}

// NewGuard builds a Guard with the given exempt path patterns. A
// pattern is either an exact path or a prefix ending in "*"; matching
// treats /x and /x/ as the same path.
func NewGuard(engine *warden.Engine, exemptPatterns []string) *Guard {
	g := &Guard{
		engine: engine,
		exempt: append([]string(nil), exemptPatterns...),
		logger: slog.New(slog.DiscardHandler),
	}
	if m := engine.Metrics(); m != nil {
		g.statusf = func(status int) {
			switch status {
			case http.StatusUnauthorized:
				m.GateDecision("unauthenticated")
			case http.StatusForbidden:
				m.GateDecision("denied")
			case http.StatusInternalServerError:
				m.GateDecision("error")
			default:
				m.GateDecision("allowed")
			}
		}
	}
	return g
}

// WithLogger sets the logger storage failures are reported on.
func (g *Guard) WithLogger(logger *slog.Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// RequiresAuth reports whether the path is gated.
func (g *Guard) RequiresAuth(path string) bool {
	path = normalize(path)
	for _, pattern := range g.exempt {
		if matches(pattern, path) {
			return false
		}
	}
	return true
}

// Wrap returns the gated handler.
func (g *Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.RequiresAuth(r.URL.Path) {
			g.observe(http.StatusOK)
			next.ServeHTTP(w, r)
			return
		}

		identity, presented, err := g.extractIdentity(r)
		if err != nil {
			g.logger.ErrorContext(r.Context(), "credential resolution failed", "path", r.URL.Path, "error", err)
			g.observe(http.StatusInternalServerError)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if identity == nil {
			status := http.StatusForbidden
			if !presented {
				status = http.StatusUnauthorized
				w.Header().Set("WWW-Authenticate", `Basic realm="warden"`)
			}
			g.observe(status)
			http.Error(w, http.StatusText(status), status)
			return
		}

		g.observe(http.StatusOK)
		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractIdentity tries each credential source in order and returns the
// first identity that resolves, along with whether any credential
// material was presented at all. A storage failure is returned as an
// error rather than folded into the deny path, so the caller can answer
// 5xx instead of 403.
func (g *Guard) extractIdentity(r *http.Request) (*warden.Identity, bool, error) {
	ctx := r.Context()
	presented := false

	if email, pw, ok := r.BasicAuth(); ok {
		presented = true
		identity, err := g.engine.VerifyCredentials(ctx, email, pw)
		if err == nil {
			return identity, true, nil
		}
		if errors.Is(err, warden.ErrStorage) {
			return nil, true, err
		}
	}

	if tok, ok := bearerToken(r.Header.Get("Authorization")); ok {
		presented = true
		identity, err := g.engine.ValidateAccessToken(ctx, tok)
		if err == nil {
			return identity, true, nil
		}
		if errors.Is(err, warden.ErrStorage) {
			return nil, true, err
		}
		identity, err = g.engine.ResolveSession(ctx, tok)
		if err == nil {
			return identity, true, nil
		}
		if errors.Is(err, warden.ErrStorage) {
			return nil, true, err
		}
	}

	if cookie, err := r.Cookie(g.engine.SessionCookieName()); err == nil && cookie.Value != "" {
		presented = true
		identity, err := g.engine.ResolveSession(ctx, cookie.Value)
		if err == nil {
			return identity, true, nil
		}
		if errors.Is(err, warden.ErrStorage) {
			return nil, true, err
		}
	}

	return nil, presented, nil
}

func (g *Guard) observe(status int) {
	if g.statusf != nil {
		g.statusf(status)
	}
}

// normalize appends a trailing slash so /x and /x/ compare equal.
func normalize(path string) string {
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}

func matches(pattern, path string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, pattern[:len(pattern)-1])
	}
	return normalize(pattern) == path
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}
	return tok, true
}
