// Package listener provides a Postgres LISTEN/NOTIFY consumer for tournament
// write events. It holds a dedicated pgx connection (not from the pool)
// listening on the tournament_events channel.
//
// Every committed write on the Postgres store fires pg_notify inside its
// transaction. Other API processes sharing the database receive the event
// here and purge their cached standings and pairings.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/swiss-tournament/internal/db"
	"github.com/albapepper/swiss-tournament/internal/store"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Handler is called for every decoded event.
type Handler func(store.Event)

// Start opens a dedicated connection and listens on db.EventsChannel. It
// reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, handle, logger)
		if ctx.Err() != nil {
			logger.Info("Event listener stopped (context cancelled)")
			return
		}

		logger.Error("Event listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, handle Handler, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+db.EventsChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", db.EventsChannel, err)
	}
	logger.Info("Event listener connected", "channel", db.EventsChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, err := decodeEvent(notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse tournament event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Debug("Tournament event received", "op", event.Op, "pid", notification.PID)
		handle(event)
	}
}

func decodeEvent(payload string) (store.Event, error) {
	var event store.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return store.Event{}, err
	}
	if event.Op == "" {
		return store.Event{}, fmt.Errorf("event has no op")
	}
	return event, nil
}
