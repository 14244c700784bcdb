// Package pairing computes Swiss-system pairings from a standings snapshot.
//
// Players are paired positionally: the snapshot is read in rank order and
// split into consecutive pairs (0,1), (2,3), ... so each player meets the
// next-ranked player below them. There is no randomization, no rematch
// avoidance and no tie-break beyond the order the snapshot arrives in.
package pairing

import "github.com/albapepper/swiss-tournament/internal/model"

// Result is the outcome of pairing one snapshot.
type Result struct {
	Pairs []model.Pairing

	// Unpaired is the last-ranked player when the snapshot has an odd
	// length. Odd counts are unsupported; the player is surfaced here so
	// callers can flag it rather than lose it.
	Unpaired *model.Standing
}

// Pair partitions standings into adjacent pairs in the order given.
func Pair(standings []model.Standing) Result {
	res := Result{Pairs: make([]model.Pairing, 0, len(standings)/2)}
	for i := 0; i+1 < len(standings); i += 2 {
		a, b := standings[i], standings[i+1]
		res.Pairs = append(res.Pairs, model.Pairing{
			ID1:   a.ID,
			Name1: a.Name,
			ID2:   b.ID,
			Name2: b.Name,
		})
	}
	if len(standings)%2 == 1 {
		last := standings[len(standings)-1]
		res.Unpaired = &last
	}
	return res
}
