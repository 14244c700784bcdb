package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/albapepper/swiss-tournament/internal/store"
	"github.com/albapepper/swiss-tournament/internal/store/storetest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tournament.db"))
	require.NoError(t, err)
	return s
}

type StoreSuite struct {
	storetest.Suite
}

func TestStoreSuite(t *testing.T) {
	s := new(StoreSuite)
	s.NewStore = func() store.Store { return openTempStore(s.T()) }
	suite.Run(t, s)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tournament.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = first.RegisterPlayer(ctx, "Persisted")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	n, err := second.CountPlayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT count(*) FROM "+migrationTable).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nCREATE TABLE a(x);\n",
		upSection("-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;"))
	assert.Equal(t, "CREATE TABLE b(x);", upSection("CREATE TABLE b(x);"))
}

func TestCloseNilSafe(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
