// Package httpd serves the HTTP surface of the authentication
// authority: registration, session login/logout, profile, password
// reset, access tokens, health, and metrics.
package httpd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wardenauth/warden"
	"github.com/wardenauth/warden/middleware"
)

// Config holds the listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// ExemptPaths are served without authentication. Everything else goes
// through the gate.
var ExemptPaths = []string{
	"/",
	"/users",
	"/sessions",
	"/reset_password",
	"/healthz",
	"/metrics",
}

// Server wires the engine, the request gate, and the route table into
// one http.Server.
type Server struct {
	config Config
	engine *warden.Engine
	logger *slog.Logger
	httpd  *http.Server
}

func New(cfg Config, engine *warden.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		config: cfg,
		engine: engine,
		logger: logger,
	}

	guard := middleware.NewGuard(engine, ExemptPaths).WithLogger(logger)
	s.httpd = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withClientIP(guard.Wrap(s.routes())),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpd.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("POST /users", s.handleRegister)
	mux.HandleFunc("POST /sessions", s.handleLogin)
	mux.HandleFunc("DELETE /sessions", s.handleLogout)
	mux.HandleFunc("GET /profile", s.handleProfile)
	mux.HandleFunc("POST /reset_password", s.handleResetRequest)
	mux.HandleFunc("PUT /reset_password", s.handleResetUpdate)
	mux.HandleFunc("POST /tokens", s.handleIssueToken)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if m := s.engine.Metrics(); m != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	}

	return mux
}

// withClientIP records the remote address on the context so engine
// audit events carry it.
func (s *Server) withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(warden.WithClientIP(r.Context(), host)))
	})
}

// Run serves until the context is cancelled, then drains connections
// within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.config.Addr)
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server draining")
	if err := s.httpd.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
