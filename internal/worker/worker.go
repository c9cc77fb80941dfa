// Package worker drains the ledger event topic into the Postgres
// transaction journal.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"voice/internal/ledger"
	"voice/internal/repository"
)

// JournalWorker listens on the ledger transactions topic and persists each
// event. With several replicas the queue group delivers every event to
// exactly one of them, and the journal insert is idempotent on the event ID
// for the redelivery case.
type JournalWorker struct {
	journal  *repository.Journal
	natsConn *nats.Conn
}

func NewJournalWorker(journal *repository.Journal, nc *nats.Conn) *JournalWorker {
	return &JournalWorker{journal: journal, natsConn: nc}
}

// Run subscribes to the transactions topic and blocks until ctx is cancelled.
func (w *JournalWorker) Run(ctx context.Context) error {
	sub, err := w.natsConn.QueueSubscribe(ledger.TransactionsTopic, "voice_journal", func(m *nats.Msg) {
		var ev ledger.Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			slog.Error("worker: failed to unmarshal ledger event", "error", err)
			return
		}

		if err := w.journal.Save(ctx, ev); err != nil {
			slog.Error("worker: failed to journal event",
				"kind", ev.Kind,
				"tenant", ev.Tenant,
				"event_id", ev.ID,
				"error", err,
			)
			return
		}

		slog.Info("worker: event journaled", "kind", ev.Kind, "tenant", ev.Tenant, "event_id", ev.ID)
	})
	if err != nil {
		return fmt.Errorf("worker: failed to subscribe to NATS: %w", err)
	}

	slog.Info("Journal worker is running")

	<-ctx.Done()

	slog.Info("Worker received shutdown signal, draining subscription...")
	return sub.Drain()
}

// Start implements the infrastructure.Server interface.
func (w *JournalWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (shutdown is via ctx).
func (w *JournalWorker) Stop(ctx context.Context) error {
	return nil
}
