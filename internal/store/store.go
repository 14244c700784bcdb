// Package store defines the record store the tournament core persists
// players and matches through. Backends live in subpackages.
package store

import (
	"context"

	"github.com/albapepper/swiss-tournament/internal/model"
)

// Store is the relational record store. Each method runs in its own
// transaction and commits only on full success.
type Store interface {
	// ResetMatches deletes every match.
	ResetMatches(ctx context.Context) error
	// ResetPlayers deletes every player. It fails with model.ErrConstraint
	// while matches still reference players.
	ResetPlayers(ctx context.Context) error
	CountPlayers(ctx context.Context) (int, error)
	// RegisterPlayer inserts a player with a zero tally and returns the
	// store-assigned id. The name is stored as given.
	RegisterPlayer(ctx context.Context, name string) (model.PlayerID, error)
	// RecordMatch inserts the match and recounts wins and matches for both
	// players from the match log.
	RecordMatch(ctx context.Context, winner, loser model.PlayerID) error
	// Standings returns every player ordered by wins descending, ties by
	// ascending id.
	Standings(ctx context.Context) ([]model.Standing, error)
	// Reconcile recounts every player's tally from the match log and
	// returns the number of players whose tally changed.
	Reconcile(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// Event is published by backends that can broadcast committed writes to
// other processes.
type Event struct {
	Op     string         `json:"op"`
	Player model.PlayerID `json:"player,omitempty"`
	Match  *model.Match   `json:"match,omitempty"`
}

// Operation names used for events, metrics and error wrapping.
const (
	OpResetMatches   = "reset_matches"
	OpResetPlayers   = "reset_players"
	OpCountPlayers   = "count_players"
	OpRegisterPlayer = "register_player"
	OpRecordMatch    = "record_match"
	OpStandings      = "standings"
	OpReconcile      = "reconcile"
)
