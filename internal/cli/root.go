// Package cli wires configuration, logging, storage and transport into the
// bookstore commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/config"
	"github.com/iliyamo/bookstore/internal/database"
	"github.com/iliyamo/bookstore/internal/logger"
)

// RootOptions holds the global flags.
type RootOptions struct {
	EnvFile string
	SQLite  string // sqlite file used instead of MySQL when set
}

// NewRootCommand creates the bookstore command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "bookstore",
		Short:         "Online bookstore: catalog, cart, orders and reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().StringVar(&opts.SQLite, "sqlite", "", "use this sqlite file instead of MySQL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	return cmd
}

// env is what every command starts from.
type env struct {
	cfg config.Config
	log *zap.Logger
}

func (o *RootOptions) load() (*env, error) {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &env{cfg: cfg, log: log}, nil
}

// openDB opens MySQL, or the sqlite file given with --sqlite.  The sqlite
// schema is applied on open since there is no separate migration step for
// local runs.
func (o *RootOptions) openDB(ctx context.Context, e *env) (*sql.DB, database.Dialect, error) {
	if o.SQLite != "" {
		db, err := database.OpenSQLite(o.SQLite)
		if err != nil {
			return nil, "", err
		}
		if err := database.Migrate(ctx, db, database.SQLite, e.log); err != nil {
			_ = db.Close()
			return nil, "", err
		}
		return db, database.SQLite, nil
	}
	db, err := database.Open(ctx, database.MySQLConfig{
		User: e.cfg.DBUser,
		Pass: e.cfg.DBPass,
		Host: e.cfg.DBHost,
		Port: e.cfg.DBPort,
		Name: e.cfg.DBName,
	})
	return db, database.MySQL, err
}
