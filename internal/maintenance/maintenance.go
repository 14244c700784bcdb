// Package maintenance runs periodic background tasks as Go tickers.
// Tally repair is driven from here so neither backend needs a database
// scheduler.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler recounts stored tallies from the match log.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	ReconcileInterval time.Duration // Recount tallies from the match log
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, rec Reconciler, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"reconcile", cfg.ReconcileInterval)

	tickers := make([]*time.Ticker, 0, 1)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Reconcile: repair tallies left stale by a matches-only reset
	if cfg.ReconcileInterval > 0 {
		t := time.NewTicker(cfg.ReconcileInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "reconcile", func() { reconcile(ctx, rec, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

func reconcile(ctx context.Context, rec Reconciler, logger *slog.Logger) {
	start := time.Now()
	n, err := rec.Reconcile(ctx)
	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Reconcile: failed", "duration", dur, "error", err)
		}
		return
	}
	if n > 0 {
		logger.Info("Reconcile: corrected tallies", "players", n, "duration", dur)
	}
}
