package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStoreCountsErrors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStore("standings", time.Now(), nil)
	m.ObserveStore("record_match", time.Now(), errors.New("boom"))
	m.ObserveStore("record_match", time.Now(), errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("standings")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("record_match")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.PlayersRegistered.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tournament_players_registered_total 3")
}
