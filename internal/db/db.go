// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/swiss-tournament/internal/config"
)

// EventsChannel is the LISTEN/NOTIFY channel committed writes are
// announced on.
const EventsChannel = "tournament_events"

//go:embed schema.sql
var schema string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must exist:
// statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded schema over a dedicated connection. It runs
// before New because prepared statements need the tables to exist.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the record store uses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Players
		"count_players":  "SELECT count(*) FROM players",
		"insert_player":  "INSERT INTO players (playerName, wins, matches) VALUES ($1, 0, 0) RETURNING idPlayer",
		"delete_players": "DELETE FROM players",
		"standings":      "SELECT idPlayer, playerName, wins, matches FROM players ORDER BY wins DESC, idPlayer ASC",

		// Matches
		"insert_match":   "INSERT INTO matches (winner, loser) VALUES ($1, $2)",
		"delete_matches": "DELETE FROM matches",

		// Tallies are recounted from the match log, never incremented.
		"recount_player": `
			UPDATE players SET
				wins    = (SELECT count(*) FROM matches WHERE winner = $1),
				matches = (SELECT count(*) FROM matches WHERE winner = $1 OR loser = $1)
			WHERE idPlayer = $1`,
		"reconcile_tallies": `
			UPDATE players p SET wins = t.wins, matches = t.matches
			FROM (
				SELECT pl.idPlayer,
					(SELECT count(*) FROM matches m WHERE m.winner = pl.idPlayer) AS wins,
					(SELECT count(*) FROM matches m WHERE m.winner = pl.idPlayer OR m.loser = pl.idPlayer) AS matches
				FROM players pl
			) t
			WHERE p.idPlayer = t.idPlayer
			  AND (p.wins <> t.wins OR p.matches <> t.matches)`,

		// Events
		"notify_event": "SELECT pg_notify($1, $2)",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
