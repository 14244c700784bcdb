// Package postgres is the PostgreSQL backend of the record store. It runs
// every operation inside a pooled transaction and announces committed
// writes on the tournament_events channel.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/swiss-tournament/internal/db"
	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/store"
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *db.Pool
}

var _ store.Store = (*Store)(nil)

// New wraps an open pool. The caller keeps ownership of the pool's
// lifetime only until Close is called on the store.
func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.HealthCheck(ctx)
}

func (s *Store) ResetMatches(ctx context.Context) error {
	return s.withTx(ctx, store.OpResetMatches, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "delete_matches"); err != nil {
			return err
		}
		return notify(ctx, tx, store.Event{Op: store.OpResetMatches})
	})
}

func (s *Store) ResetPlayers(ctx context.Context) error {
	return s.withTx(ctx, store.OpResetPlayers, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "delete_players"); err != nil {
			return err
		}
		return notify(ctx, tx, store.Event{Op: store.OpResetPlayers})
	})
}

func (s *Store) CountPlayers(ctx context.Context) (int, error) {
	var n int
	err := s.withTx(ctx, store.OpCountPlayers, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, "count_players").Scan(&n)
	})
	return n, err
}

func (s *Store) RegisterPlayer(ctx context.Context, name string) (model.PlayerID, error) {
	var id int64
	err := s.withTx(ctx, store.OpRegisterPlayer, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "insert_player", name).Scan(&id); err != nil {
			return err
		}
		return notify(ctx, tx, store.Event{Op: store.OpRegisterPlayer, Player: model.PlayerID(id)})
	})
	return model.PlayerID(id), err
}

func (s *Store) RecordMatch(ctx context.Context, winner, loser model.PlayerID) error {
	return s.withTx(ctx, store.OpRecordMatch, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "insert_match", int64(winner), int64(loser)); err != nil {
			return err
		}
		for _, id := range []model.PlayerID{winner, loser} {
			if _, err := tx.Exec(ctx, "recount_player", int64(id)); err != nil {
				return fmt.Errorf("recount player %d: %w", id, err)
			}
		}
		return notify(ctx, tx, store.Event{
			Op:    store.OpRecordMatch,
			Match: &model.Match{Winner: winner, Loser: loser},
		})
	})
}

func (s *Store) Standings(ctx context.Context) ([]model.Standing, error) {
	var out []model.Standing
	err := s.withTx(ctx, store.OpStandings, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "standings")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id int64
				st model.Standing
			)
			if err := rows.Scan(&id, &st.Name, &st.Wins, &st.Matches); err != nil {
				return fmt.Errorf("scan standing: %w", err)
			}
			st.ID = model.PlayerID(id)
			out = append(out, st)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) Reconcile(ctx context.Context) (int, error) {
	var changed int64
	err := s.withTx(ctx, store.OpReconcile, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "reconcile_tallies")
		if err != nil {
			return err
		}
		changed = tag.RowsAffected()
		if changed == 0 {
			return nil
		}
		return notify(ctx, tx, store.Event{Op: store.OpReconcile})
	})
	return int(changed), err
}

// withTx runs fn in a pooled transaction. pgx.BeginFunc commits on success,
// rolls back on error and returns the connection to the pool either way.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	if err := pgx.BeginFunc(ctx, s.pool, fn); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// notify queues an event for delivery when the transaction commits.
func notify(ctx context.Context, tx pgx.Tx, ev store.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := tx.Exec(ctx, "notify_event", db.EventsChannel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", ev.Op, err)
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

// isConstraint reports SQLSTATE class 23 (integrity constraint violation).
func isConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}
