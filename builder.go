package warden

import (
	"errors"
	"log/slog"

	"github.com/wardenauth/warden/internal/audit"
	"github.com/wardenauth/warden/internal/metrics"
	"github.com/wardenauth/warden/jwt"
	"github.com/wardenauth/warden/password"
	"github.com/wardenauth/warden/store"
)

// Builder assembles an Engine. A Builder is single-use: Build may be
// called once.
type Builder struct {
	config    Config
	store     store.Store
	logger    *slog.Logger
	auditSink audit.Sink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination for audit events and enables the
// audit dispatcher.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

func (b *Builder) WithMetrics(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if b.store == nil {
		return nil, errors.New("credential store is required")
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password.Cost)
	if err != nil {
		return nil, err
	}

	// Hash of a throwaway value, verified against on unknown-email logins
	// so both failure paths cost one argon2 computation.
	dummyHash, err := hasher.Hash("warden-dummy-credential")
	if err != nil {
		return nil, err
	}

	var jwtManager *jwt.Manager
	if b.config.JWT.Enabled {
		jwtManager, err = jwt.NewManager(jwt.Config{
			AccessTTL:     b.config.JWT.AccessTTL,
			SigningMethod: b.config.JWT.SigningMethod,
			Key:           b.config.JWT.Key,
			PublicKey:     b.config.JWT.PublicKey,
			Issuer:        b.config.JWT.Issuer,
			Leeway:        b.config.JWT.Leeway,
		})
		if err != nil {
			return nil, err
		}
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var m *metrics.Metrics
	if b.config.Metrics.Enabled {
		m = metrics.New()
	}

	return &Engine{
		config:    b.config,
		store:     b.store,
		hasher:    hasher,
		dummyHash: dummyHash,
		jwt:       jwtManager,
		audit:     audit.NewDispatcher(b.config.Audit, b.auditSink),
		metrics:   m,
		logger:    logger,
	}, nil
}
