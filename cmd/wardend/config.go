package main

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// serverConfig is the full wardend configuration, loaded from a YAML
// file overridden by command-line flags.
type serverConfig struct {
	Server struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"server"`

	Log struct {
		Format string `koanf:"format"`
		Level  string `koanf:"level"`
	} `koanf:"log"`

	Store struct {
		Backend string `koanf:"backend"`

		Redis struct {
			Addr     string `koanf:"addr"`
			Password string `koanf:"password"`
			DB       int    `koanf:"db"`
			Prefix   string `koanf:"prefix"`
		} `koanf:"redis"`

		Postgres struct {
			DSN string `koanf:"dsn"`
		} `koanf:"postgres"`
	} `koanf:"store"`

	Auth struct {
		PasswordMinLength int    `koanf:"password_min_length"`
		SessionCookie     string `koanf:"session_cookie"`

		JWT struct {
			Enabled   bool          `koanf:"enabled"`
			Key       string        `koanf:"key"`
			Issuer    string        `koanf:"issuer"`
			AccessTTL time.Duration `koanf:"access_ttl"`
		} `koanf:"jwt"`
	} `koanf:"auth"`

	Audit struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"audit"`

	Metrics struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"metrics"`
}

func defaultServerConfig() serverConfig {
	var cfg serverConfig
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Log.Format = "json"
	cfg.Log.Level = "info"
	cfg.Store.Backend = "memory"
	cfg.Store.Redis.Addr = "localhost:6379"
	cfg.Store.Redis.Prefix = "warden"
	cfg.Auth.PasswordMinLength = 1
	cfg.Auth.SessionCookie = "session_id"
	cfg.Auth.JWT.AccessTTL = 15 * time.Minute
	cfg.Metrics.Enabled = true
	return cfg
}

// loadConfig merges defaults, the optional YAML file, and flags, in
// that order of precedence (later wins).
func loadConfig(path string, flags *pflag.FlagSet) (serverConfig, error) {
	cfg := defaultServerConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}
