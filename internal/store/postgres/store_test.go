package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/db"
	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/store"
	"github.com/albapepper/swiss-tournament/internal/store/storetest"
)

// The suite needs a disposable database; it truncates both tables before
// every test.
const testURLEnv = "TOURNAMENT_TEST_DATABASE_URL"

type StoreSuite struct {
	storetest.Suite
}

func TestStoreSuite(t *testing.T) {
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	s := new(StoreSuite)
	s.NewStore = func() store.Store {
		ctx := context.Background()
		require.NoError(s.T(), db.Migrate(ctx, url))

		pool, err := db.New(ctx, &config.Config{
			DatabaseURL:    url,
			DBPoolMinConns: 1,
			DBPoolMaxConns: 4,
		})
		require.NoError(s.T(), err)
		_, err = pool.Exec(ctx, "TRUNCATE matches, players RESTART IDENTITY")
		require.NoError(s.T(), err)
		return New(pool)
	}
	suite.Run(t, s)
}

func TestWrapErrConstraint(t *testing.T) {
	err := wrapErr(store.OpRecordMatch, &pgconn.PgError{Code: "23503", Message: "fk"})

	assert.ErrorIs(t, err, model.ErrConstraint)
	assert.Contains(t, err.Error(), "record match: ")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestWrapErrOther(t *testing.T) {
	err := wrapErr(store.OpStandings, &pgconn.PgError{Code: "08006"})

	assert.NotErrorIs(t, err, model.ErrConstraint)
	assert.Contains(t, err.Error(), "standings: ")
}

func TestCloseNilSafe(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
