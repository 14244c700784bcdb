// Package bootstrap opens the record store selected by configuration.
// Shared by cmd/api and cmd/tournament.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/db"
	"github.com/albapepper/swiss-tournament/internal/store"
	"github.com/albapepper/swiss-tournament/internal/store/postgres"
	"github.com/albapepper/swiss-tournament/internal/store/sqlite"
)

// OpenStore applies the schema for cfg.StoreDriver and returns a ready
// store. The caller must Close it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Postgres",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		return postgres.New(pool), nil

	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened SQLite store", "path", cfg.SQLitePath)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
