package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wardenauth/warden/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending schema migrations against the PostgreSQL credential store.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Store.Postgres.DSN == "" {
				return oops.Code("CONFIG_INVALID").Errorf("store.postgres.dsn is required for migrations")
			}

			migrator, err := store.NewMigrator(cfg.Store.Postgres.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = migrator.Close() }()

			cmd.Println("Running migrations...")
			if err := migrator.Up(); err != nil {
				return oops.Code("MIGRATION_FAILED").Wrap(err)
			}

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Migrations completed (version %d, dirty=%v)\n", version, dirty)
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().String("store.postgres.dsn", "", "postgres connection string")

	return cmd
}
