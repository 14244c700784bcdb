// Package sqlite is the embedded SQLite backend of the record store, used
// for single-node deployments and as the default backend in tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/store"
	"github.com/albapepper/swiss-tournament/internal/store/sqlite/migrations"
)

const (
	recountPlayerSQL = `
		UPDATE players SET
			wins    = (SELECT count(*) FROM matches WHERE winner = ?),
			matches = (SELECT count(*) FROM matches WHERE winner = ? OR loser = ?)
		WHERE idPlayer = ?`

	reconcileSQL = `
		UPDATE players SET
			wins    = (SELECT count(*) FROM matches m WHERE m.winner = players.idPlayer),
			matches = (SELECT count(*) FROM matches m WHERE m.winner = players.idPlayer OR m.loser = players.idPlayer)
		WHERE wins <> (SELECT count(*) FROM matches m WHERE m.winner = players.idPlayer)
		   OR matches <> (SELECT count(*) FROM matches m WHERE m.winner = players.idPlayer OR m.loser = players.idPlayer)`
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps per-connection
	// pragmas in force for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ResetMatches(ctx context.Context) error {
	return s.withTx(ctx, store.OpResetMatches, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM matches")
		return err
	})
}

func (s *Store) ResetPlayers(ctx context.Context) error {
	return s.withTx(ctx, store.OpResetPlayers, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM players")
		return err
	})
}

func (s *Store) CountPlayers(ctx context.Context) (int, error) {
	var n int
	err := s.withTx(ctx, store.OpCountPlayers, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, "SELECT count(*) FROM players").Scan(&n)
	})
	return n, err
}

func (s *Store) RegisterPlayer(ctx context.Context, name string) (model.PlayerID, error) {
	var id model.PlayerID
	err := s.withTx(ctx, store.OpRegisterPlayer, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO players (playerName, wins, matches) VALUES (?, 0, 0)", name)
		if err != nil {
			return err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = model.PlayerID(last)
		return nil
	})
	return id, err
}

func (s *Store) RecordMatch(ctx context.Context, winner, loser model.PlayerID) error {
	return s.withTx(ctx, store.OpRecordMatch, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO matches (winner, loser) VALUES (?, ?)", winner, loser); err != nil {
			return err
		}
		for _, id := range []model.PlayerID{winner, loser} {
			if _, err := tx.ExecContext(ctx, recountPlayerSQL, id, id, id, id); err != nil {
				return fmt.Errorf("recount player %d: %w", id, err)
			}
		}
		return nil
	})
}

func (s *Store) Standings(ctx context.Context) ([]model.Standing, error) {
	var out []model.Standing
	err := s.withTx(ctx, store.OpStandings, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT idPlayer, playerName, wins, matches FROM players ORDER BY wins DESC, idPlayer ASC")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var st model.Standing
			if err := rows.Scan(&st.ID, &st.Name, &st.Wins, &st.Matches); err != nil {
				return fmt.Errorf("scan standing: %w", err)
			}
			out = append(out, st)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) Reconcile(ctx context.Context) (int, error) {
	var changed int64
	err := s.withTx(ctx, store.OpReconcile, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, reconcileSQL)
		if err != nil {
			return err
		}
		changed, err = res.RowsAffected()
		return err
	})
	return int(changed), err
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return wrapErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	label := strings.ReplaceAll(op, "_", " ")
	if isConstraint(err) {
		return fmt.Errorf("%s: %w: %w", label, model.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", label, err)
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
