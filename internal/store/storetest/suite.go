// Package storetest holds the behavioural test suite every store backend
// must pass. Backend packages embed Suite and supply a fresh store per test.
package storetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/store"
)

// Suite exercises a store.Store. NewStore must return an empty store.
type Suite struct {
	suite.Suite
	NewStore func() store.Store

	Store store.Store
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.Store = s.NewStore()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *Suite) register(names ...string) []model.PlayerID {
	ids := make([]model.PlayerID, 0, len(names))
	for _, n := range names {
		id, err := s.Store.RegisterPlayer(s.Ctx, n)
		s.Require().NoError(err)
		ids = append(ids, id)
	}
	return ids
}

func (s *Suite) standingByID() map[model.PlayerID]model.Standing {
	rows, err := s.Store.Standings(s.Ctx)
	s.Require().NoError(err)
	out := make(map[model.PlayerID]model.Standing, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out
}

func (s *Suite) TestEmptyStore() {
	n, err := s.Store.CountPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	rows, err := s.Store.Standings(s.Ctx)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *Suite) TestPing() {
	s.NoError(s.Store.Ping(s.Ctx))
}

func (s *Suite) TestCountFollowsRegistrations() {
	for i := 1; i <= 5; i++ {
		s.register("Player")
		n, err := s.Store.CountPlayers(s.Ctx)
		s.Require().NoError(err)
		s.Equal(i, n)
	}
}

func (s *Suite) TestRegisterAssignsUniqueIDs() {
	ids := s.register("Same Name", "Same Name", "Other")

	s.Len(ids, 3)
	s.NotEqual(ids[0], ids[1])
	s.NotEqual(ids[1], ids[2])
	s.NotEqual(ids[0], ids[2])
}

func (s *Suite) TestRegisterStartsWithZeroTally() {
	ids := s.register("Chandra Nalaar")

	rows, err := s.Store.Standings(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(model.Standing{ID: ids[0], Name: "Chandra Nalaar", Wins: 0, Matches: 0}, rows[0])
}

func (s *Suite) TestResetClearsEverything() {
	ids := s.register("A", "B")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[1]))

	s.Require().NoError(s.Store.ResetMatches(s.Ctx))
	s.Require().NoError(s.Store.ResetPlayers(s.Ctx))

	n, err := s.Store.CountPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	rows, err := s.Store.Standings(s.Ctx)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *Suite) TestCountAfterResetCountsNewRegistrations() {
	s.register("A", "B", "C")
	s.Require().NoError(s.Store.ResetPlayers(s.Ctx))
	s.register("D")

	n, err := s.Store.CountPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *Suite) TestResetPlayersWithMatchesViolatesConstraint() {
	ids := s.register("A", "B")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[1]))

	err := s.Store.ResetPlayers(s.Ctx)
	s.ErrorIs(err, model.ErrConstraint)

	n, err := s.Store.CountPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Equal(2, n, "failed reset must not delete anything")
}

func (s *Suite) TestRecordMatchUpdatesBothPlayers() {
	ids := s.register("Winner", "Loser")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[1]))

	byID := s.standingByID()
	s.Equal(1, byID[ids[0]].Wins)
	s.Equal(1, byID[ids[0]].Matches)
	s.Equal(0, byID[ids[1]].Wins)
	s.Equal(1, byID[ids[1]].Matches)
}

func (s *Suite) TestRecordMatchUnknownPlayer() {
	ids := s.register("Known")

	err := s.Store.RecordMatch(s.Ctx, ids[0], ids[0]+1000)
	s.ErrorIs(err, model.ErrConstraint)

	byID := s.standingByID()
	s.Equal(0, byID[ids[0]].Matches, "failed report must not change tallies")
}

func (s *Suite) TestMatchesEqualWinsPlusLosses() {
	ids := s.register("A", "B", "C", "D")
	results := [][2]int{{0, 1}, {2, 3}, {0, 2}, {1, 3}, {3, 0}, {1, 2}, {0, 1}}
	losses := map[model.PlayerID]int{}
	wins := map[model.PlayerID]int{}
	for _, r := range results {
		w, l := ids[r[0]], ids[r[1]]
		s.Require().NoError(s.Store.RecordMatch(s.Ctx, w, l))
		wins[w]++
		losses[l]++
	}

	for id, st := range s.standingByID() {
		s.Equal(wins[id], st.Wins, "wins of %d", id)
		s.Equal(wins[id]+losses[id], st.Matches, "matches of %d", id)
		s.Equal(losses[id], st.Losses(), "losses of %d", id)
	}
}

func (s *Suite) TestStandingsOrderedByWins() {
	ids := s.register("A", "B", "C", "D", "E", "F")
	for _, r := range [][2]int{{5, 0}, {5, 1}, {4, 2}, {5, 3}, {4, 3}, {2, 1}} {
		s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[r[0]], ids[r[1]]))
	}

	rows, err := s.Store.Standings(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 6)
	s.Equal(ids[5], rows[0].ID)
	for i := 1; i < len(rows); i++ {
		s.GreaterOrEqual(rows[i-1].Wins, rows[i].Wins)
		if rows[i-1].Wins == rows[i].Wins {
			s.Less(rows[i-1].ID, rows[i].ID, "ties ordered by id")
		}
	}
}

func (s *Suite) TestFourPlayerScenario() {
	ids := s.register("A", "B", "C", "D")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[1]))
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[2], ids[3]))

	rows, err := s.Store.Standings(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 4)
	s.Equal([]model.PlayerID{ids[0], ids[2], ids[1], ids[3]},
		[]model.PlayerID{rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID})
	s.Equal([]int{1, 1, 0, 0}, []int{rows[0].Wins, rows[1].Wins, rows[2].Wins, rows[3].Wins})
}

func (s *Suite) TestSelfMatchIsStored() {
	ids := s.register("Solo")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[0]))

	st := s.standingByID()[ids[0]]
	s.Equal(1, st.Wins)
	s.Equal(1, st.Matches)
}

func (s *Suite) TestReconcileIsNoopWhenConsistent() {
	ids := s.register("A", "B")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[1]))

	changed, err := s.Store.Reconcile(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, changed)
}

func (s *Suite) TestReconcileAfterResetMatches() {
	ids := s.register("A", "B", "C")
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[1]))
	s.Require().NoError(s.Store.RecordMatch(s.Ctx, ids[0], ids[2]))
	s.Require().NoError(s.Store.ResetMatches(s.Ctx))

	// Tallies are stale until recomputed.
	s.Equal(2, s.standingByID()[ids[0]].Wins)

	changed, err := s.Store.Reconcile(s.Ctx)
	s.Require().NoError(err)
	s.Equal(3, changed)
	for _, st := range s.standingByID() {
		s.Zero(st.Wins)
		s.Zero(st.Matches)
	}
}
