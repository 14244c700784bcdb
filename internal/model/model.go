// Package model holds the tournament domain types shared by the store,
// the pairing engine and the API layers.
package model

// PlayerID is the store-assigned identifier of a registered player.
type PlayerID int64

// Standing is one player's row in the standings: identity plus the
// win/match tally recomputed from the match log.
type Standing struct {
	ID      PlayerID `json:"id"`
	Name    string   `json:"name"`
	Wins    int      `json:"wins"`
	Matches int      `json:"matches"`
}

// Losses is derived from the tally; matches always includes wins.
func (s Standing) Losses() int {
	return s.Matches - s.Wins
}

// Match is a single recorded result.
type Match struct {
	Winner PlayerID `json:"winner"`
	Loser  PlayerID `json:"loser"`
}

// Pairing assigns two players to play each other in the next round.
type Pairing struct {
	ID1   PlayerID `json:"id1"`
	Name1 string   `json:"name1"`
	ID2   PlayerID `json:"id2"`
	Name2 string   `json:"name2"`
}
