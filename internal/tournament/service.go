// Package tournament is the caller-facing core: it sanitizes input, drives
// the record store and the pairing engine, and instruments every operation.
package tournament

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/swiss-tournament/internal/metrics"
	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/pairing"
	"github.com/albapepper/swiss-tournament/internal/sanitize"
	"github.com/albapepper/swiss-tournament/internal/store"
)

// Options tune rules that are off by default.
type Options struct {
	// StrictMatches rejects results where winner and loser are the same
	// player instead of recording them with a warning.
	StrictMatches bool
}

// Service runs tournament operations against a store.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	opts    Options

	onChange []func(op string)
}

// New creates a Service. m may be nil to disable instrumentation.
func New(st store.Store, m *metrics.Metrics, logger *slog.Logger, opts Options) *Service {
	return &Service{store: st, metrics: m, logger: logger, opts: opts}
}

// OnChange registers fn to run after every committed write. Hooks are not
// safe to add concurrently with operations; register them at start-up.
func (s *Service) OnChange(fn func(op string)) {
	s.onChange = append(s.onChange, fn)
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ResetMatches deletes every match. Tallies stay stale until players are
// reset or Reconcile runs.
func (s *Service) ResetMatches(ctx context.Context) error {
	err := s.observe(store.OpResetMatches, func() error {
		return s.store.ResetMatches(ctx)
	})
	if err != nil {
		return err
	}
	s.countReset("matches")
	s.changed(store.OpResetMatches)
	return nil
}

// ResetPlayers deletes every player. Matches must be reset first.
func (s *Service) ResetPlayers(ctx context.Context) error {
	err := s.observe(store.OpResetPlayers, func() error {
		return s.store.ResetPlayers(ctx)
	})
	if err != nil {
		return err
	}
	s.countReset("players")
	s.changed(store.OpResetPlayers)
	return nil
}

// Reset clears matches, then players.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.ResetMatches(ctx); err != nil {
		return err
	}
	return s.ResetPlayers(ctx)
}

func (s *Service) CountPlayers(ctx context.Context) (int, error) {
	var n int
	err := s.observe(store.OpCountPlayers, func() error {
		var err error
		n, err = s.store.CountPlayers(ctx)
		return err
	})
	return n, err
}

// RegisterPlayer sanitizes name and registers a new player. It returns the
// store-assigned id and the name as stored.
func (s *Service) RegisterPlayer(ctx context.Context, name string) (model.PlayerID, string, error) {
	clean := sanitize.Name(name)
	if clean == "" {
		return 0, "", fmt.Errorf("register player %q: %w", name, model.ErrEmptyName)
	}

	var id model.PlayerID
	err := s.observe(store.OpRegisterPlayer, func() error {
		var err error
		id, err = s.store.RegisterPlayer(ctx, clean)
		return err
	})
	if err != nil {
		return 0, "", err
	}

	if s.metrics != nil {
		s.metrics.PlayersRegistered.Inc()
	}
	s.logger.Info("Player registered", "id", id, "name", clean)
	s.changed(store.OpRegisterPlayer)
	return id, clean, nil
}

// ReportMatch records that winner beat loser; both tallies are recounted
// from the match log in the same transaction.
func (s *Service) ReportMatch(ctx context.Context, winner, loser model.PlayerID) error {
	if winner == loser {
		if s.opts.StrictMatches {
			return fmt.Errorf("report match %d vs %d: %w", winner, loser, model.ErrSelfMatch)
		}
		s.logger.Warn("Recording match with identical winner and loser", "player", winner)
	}

	err := s.observe(store.OpRecordMatch, func() error {
		return s.store.RecordMatch(ctx, winner, loser)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.MatchesReported.Inc()
	}
	s.logger.Info("Match reported", "winner", winner, "loser", loser)
	s.changed(store.OpRecordMatch)
	return nil
}

// Standings returns players ordered by wins descending.
func (s *Service) Standings(ctx context.Context) ([]model.Standing, error) {
	var rows []model.Standing
	err := s.observe(store.OpStandings, func() error {
		var err error
		rows, err = s.store.Standings(ctx)
		return err
	})
	return rows, err
}

// SwissPairings pairs the current standings snapshot. An odd player count
// is unsupported; the leftover player is logged and returned as Unpaired.
func (s *Service) SwissPairings(ctx context.Context) (pairing.Result, error) {
	rows, err := s.Standings(ctx)
	if err != nil {
		return pairing.Result{}, err
	}

	res := pairing.Pair(rows)
	if res.Unpaired != nil {
		s.logger.Warn("Odd player count, last player left unpaired",
			"players", len(rows),
			"unpaired_id", res.Unpaired.ID,
			"unpaired_name", res.Unpaired.Name)
	}
	if s.metrics != nil {
		s.metrics.PairingsGenerated.Add(float64(len(res.Pairs)))
	}
	return res, nil
}

// Reconcile recounts every tally from the match log and returns how many
// players were corrected.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	var changed int
	err := s.observe(store.OpReconcile, func() error {
		var err error
		changed, err = s.store.Reconcile(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.logger.Info("Tallies reconciled", "players_corrected", changed)
		s.changed(store.OpReconcile)
	}
	return changed, nil
}

func (s *Service) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if s.metrics != nil {
		s.metrics.ObserveStore(op, start, err)
	}
	return err
}

func (s *Service) countReset(target string) {
	if s.metrics != nil {
		s.metrics.Resets.WithLabelValues(target).Inc()
	}
}

func (s *Service) changed(op string) {
	for _, fn := range s.onChange {
		fn(op)
	}
}
