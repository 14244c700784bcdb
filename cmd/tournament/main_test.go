package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func useTempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "tournament.db"))
	return dir
}

func TestTournamentRound(t *testing.T) {
	useTempStore(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "register", "Twilight Sparkle", "Fluttershy", "Applejack", "Pinkie Pie")
	require.NoError(t, err)
	assert.Equal(t, "1\tTwilight Sparkle\n2\tFluttershy\n3\tApplejack\n4\tPinkie Pie\n", out)

	out, err = run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	_, err = run(t, "report", "1", "2")
	require.NoError(t, err)
	_, err = run(t, "report", "3", "4")
	require.NoError(t, err)

	out, err = run(t, "standings")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
	assert.True(t, strings.HasPrefix(lines[2], "3 "))

	out, err = run(t, "pairings")
	require.NoError(t, err)
	assert.Contains(t, out, "Twilight Sparkle")
	assert.NotContains(t, out, "unpaired")
}

func TestResetMatchesOnlyThenReconcile(t *testing.T) {
	useTempStore(t)

	_, err := run(t, "register", "Ada", "Grace")
	require.NoError(t, err)
	_, err = run(t, "report", "2", "1")
	require.NoError(t, err)

	_, err = run(t, "reset", "--matches-only")
	require.NoError(t, err)

	out, err := run(t, "reconcile")
	require.NoError(t, err)
	assert.Equal(t, "2 players corrected\n", out)

	_, err = run(t, "reset")
	require.NoError(t, err)
	out, err = run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestImport(t *testing.T) {
	dir := useTempStore(t)
	roster := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(roster, []byte("name,seed\nAda,1\n\nGrace,2\n"), 0o644))

	_, err := run(t, "import", roster)
	require.NoError(t, err)

	out, err := run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, err = run(t, "import", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestReportRejectsBadIDs(t *testing.T) {
	useTempStore(t)

	_, err := run(t, "report", "one", "2")
	assert.ErrorContains(t, err, "invalid player id")

	_, err = run(t, "report", "1")
	assert.Error(t, err)
}

func TestParsePlayerID(t *testing.T) {
	id, err := parsePlayerID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = parsePlayerID("0")
	assert.Error(t, err)
	_, err = parsePlayerID("-3")
	assert.Error(t, err)
}
