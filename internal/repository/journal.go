package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"voice/internal/ledger"
)

// Journal appends ledger events to the transactions table. The bus may
// redeliver, so the insert is idempotent on the event ID.
type Journal struct {
	db *pgxpool.Pool
}

func NewJournal(db *pgxpool.Pool) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Save(ctx context.Context, ev ledger.Event) error {
	_, err := j.db.Exec(ctx, `
		INSERT INTO transactions (event_id, kind, tenant, symbol, sender, receiver, quantity, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.ID, ev.Kind, ev.Tenant, ev.Symbol, ev.From, ev.To, ev.Quantity, ev.Memo, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
