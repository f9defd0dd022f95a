package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden"
	"github.com/wardenauth/warden/internal/httpd"
	"github.com/wardenauth/warden/internal/logging"
	"github.com/wardenauth/warden/jwt"
	"github.com/wardenauth/warden/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().String("server.addr", ":8080", "listen address")
	cmd.Flags().String("log.format", "json", "log format (json or text)")
	cmd.Flags().String("log.level", "info", "minimum log level (debug, info, warn, error)")
	cmd.Flags().String("store.backend", "memory", "credential store backend (memory, redis, postgres)")

	return cmd
}

func runServe(ctx context.Context, cfg serverConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return oops.Code("CONFIG_INVALID").Errorf("unknown log level %q", cfg.Log.Level)
	}
	logger := logging.Setup("wardend", version, cfg.Log.Format, level, nil)

	credStore, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	engineCfg := warden.DefaultConfig()
	engineCfg.Password.MinLength = cfg.Auth.PasswordMinLength
	engineCfg.Session.CookieName = cfg.Auth.SessionCookie
	engineCfg.Metrics.Enabled = cfg.Metrics.Enabled
	if cfg.Auth.JWT.Enabled {
		engineCfg.JWT.Enabled = true
		engineCfg.JWT.SigningMethod = jwt.MethodHS256
		engineCfg.JWT.Key = []byte(cfg.Auth.JWT.Key)
		engineCfg.JWT.Issuer = cfg.Auth.JWT.Issuer
		engineCfg.JWT.AccessTTL = cfg.Auth.JWT.AccessTTL
	}

	builder := warden.New().
		WithConfig(engineCfg).
		WithStore(credStore).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(warden.NewJSONAuditSink(os.Stdout))
	}

	engine, err := builder.Build()
	if err != nil {
		return oops.Code("ENGINE_INIT_FAILED").Wrap(err)
	}
	defer engine.Close()

	httpCfg := httpd.DefaultConfig()
	httpCfg.Addr = cfg.Server.Addr
	httpCfg.ReadTimeout = cfg.Server.ReadTimeout
	httpCfg.WriteTimeout = cfg.Server.WriteTimeout
	httpCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return httpd.New(httpCfg, engine, logger).Run(runCtx)
}

func openStore(ctx context.Context, cfg serverConfig) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, oops.Code("STORE_CONNECT_FAILED").With("backend", "redis").Wrap(err)
		}
		return store.NewRedis(client, cfg.Store.Redis.Prefix), func() { _ = client.Close() }, nil

	case "postgres":
		pg, pool, err := store.Connect(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, nil, oops.Code("STORE_CONNECT_FAILED").With("backend", "postgres").Wrap(err)
		}
		return pg, pool.Close, nil

	default:
		return nil, nil, oops.Code("CONFIG_INVALID").Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
