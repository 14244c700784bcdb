// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/swiss-tournament/internal/metrics"
	"github.com/albapepper/swiss-tournament/internal/store"
	"github.com/albapepper/swiss-tournament/internal/store/sqlite"
	"github.com/albapepper/swiss-tournament/internal/tournament"
)

// NopLogger returns a logger that discards all output.
// Use this in tests to avoid log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// NewService returns a service over a fresh SQLite store in t's temp dir,
// with metrics on a private registry. The store is closed on cleanup.
func NewService(t *testing.T, opts tournament.Options) (*tournament.Service, *metrics.Metrics) {
	t.Helper()
	return NewServiceWith(t, opts, nil)
}

// NewServiceWith is NewService with the store passed through wrap first.
// A nil wrap uses the SQLite store as is.
func NewServiceWith(t *testing.T, opts tournament.Options, wrap func(store.Store) store.Store) (*tournament.Service, *metrics.Metrics) {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "tournament.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var st store.Store = db
	if wrap != nil {
		st = wrap(db)
	}
	m := metrics.New(prometheus.NewRegistry())
	return tournament.New(st, m, NopLogger(), opts), m
}
