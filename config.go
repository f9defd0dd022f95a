package warden

import (
	"errors"
	"time"

	"github.com/wardenauth/warden/internal/audit"
	"github.com/wardenauth/warden/jwt"
	"github.com/wardenauth/warden/password"
)

// Config tunes the engine. Configure once, pass to the Builder, and treat
// as immutable afterwards.
type Config struct {
	Password PasswordConfig
	Session  SessionConfig
	JWT      JWTConfig
	Audit    audit.Config
	Metrics  MetricsConfig
}

type PasswordConfig struct {
	// MinLength is the minimum accepted password length in bytes.
	MinLength int
	// Cost holds the argon2id parameters.
	Cost password.Config
}

type SessionConfig struct {
	// CookieName is the cookie carrying the session token on the HTTP
	// surface.
	CookieName string
}

// JWTConfig enables optional stateless access tokens. Disabled unless
// Enabled is set; the engine then requires valid signing material.
type JWTConfig struct {
	Enabled       bool
	SigningMethod jwt.SigningMethod
	Key           []byte
	PublicKey     []byte
	Issuer        string
	AccessTTL     time.Duration
	Leeway        time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: argon2id defaults,
// one-byte password minimum, session_id cookie, JWT and audit disabled,
// metrics enabled.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			MinLength: 1,
			Cost:      password.Default(),
		},
		Session: SessionConfig{
			CookieName: "session_id",
		},
		JWT: JWTConfig{
			Enabled:       false,
			SigningMethod: jwt.MethodHS256,
			AccessTTL:     15 * time.Minute,
			Leeway:        30 * time.Second,
		},
		Audit: audit.Config{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func (c Config) validate() error {
	if c.Password.MinLength < 1 {
		return errors.New("password minimum length must be at least 1")
	}
	if c.Session.CookieName == "" {
		return errors.New("session cookie name must not be empty")
	}
	if c.JWT.Enabled {
		if c.JWT.AccessTTL <= 0 {
			return errors.New("jwt access TTL must be positive")
		}
		if len(c.JWT.Key) == 0 {
			return errors.New("jwt enabled without signing key")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be at least 1")
	}
	return nil
}
