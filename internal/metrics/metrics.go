// Package metrics exposes Prometheus instrumentation for tournament
// operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tournament"

type Metrics struct {
	PlayersRegistered prometheus.Counter
	MatchesReported   prometheus.Counter
	PairingsGenerated prometheus.Counter
	Resets            *prometheus.CounterVec
	StoreLatency      *prometheus.HistogramVec
	StoreErrors       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PlayersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_registered_total",
			Help:      "Total number of players registered",
		}),
		MatchesReported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_reported_total",
			Help:      "Total number of match results recorded",
		}),
		PairingsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairings_generated_total",
			Help:      "Total number of pairs produced by the pairing engine",
		}),
		Resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Bulk resets by target table",
		}, []string{"target"}),
		StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_seconds",
			Help:      "Record store operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Record store operations that returned an error",
		}, []string{"op"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.PlayersRegistered,
		m.MatchesReported,
		m.PairingsGenerated,
		m.Resets,
		m.StoreLatency,
		m.StoreErrors,
	)
	return m
}

// ObserveStore records latency for op and counts it as failed if err is set.
func (m *Metrics) ObserveStore(op string, start time.Time, err error) {
	m.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
