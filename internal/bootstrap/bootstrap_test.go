package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/testutil"
)

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "t.db"),
	}

	st, err := OpenStore(ctx, cfg, testutil.NopLogger())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Ping(ctx))
	n, err := st.CountPlayers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{StoreDriver: "mysql"}, testutil.NopLogger())
	assert.ErrorContains(t, err, "unknown store driver")
}
