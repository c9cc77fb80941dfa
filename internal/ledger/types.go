// Package ledger implements the multi-tenant decaying-balance token ledger:
// tenant registry, per-holder account records and the service that mutates
// them. Every mutating call is validate-then-commit inside a single store
// transaction, so a failed invariant never leaves a partial write.
package ledger

import (
	"time"

	"voice/internal/asset"
)

// Tenant is one isolated namespace within a token symbol. The (symbol,
// tenant) pair is the registry key. A negative MaxSupply means the supply is
// uncapped, mirroring the -1 sentinel used at creation time.
type Tenant struct {
	Tenant        string
	Issuer        string
	Supply        asset.Amount
	MaxSupply     asset.Amount
	DecayPeriod   int64
	DecayRateX10M int64
}

// Symbol returns the tenant's asset symbol (code + fixed precision).
func (t *Tenant) Symbol() asset.Symbol {
	return t.Supply.Symbol
}

// Account is one holder's balance under a (tenant, symbol) pair.
// LastDecayPeriod is the time of the last applied decay step, or the
// creation time if none applied yet.
type Account struct {
	Tenant          string
	Owner           string
	Balance         asset.Amount
	LastDecayPeriod int64
}

// Event is published on the bus after every successful mutation. The journal
// worker persists it; consumers must treat the ID as the idempotency key.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Tenant    string    `json:"tenant"`
	Symbol    string    `json:"symbol"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Quantity  string    `json:"quantity,omitempty"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event kinds.
const (
	EventCreate     = "create"
	EventOpen       = "open"
	EventClose      = "close"
	EventDelete     = "del"
	EventIssue      = "issue"
	EventTransfer   = "transfer"
	EventDecay      = "decay"
	EventVoiceReset = "voicereset"
	EventReset      = "reset"
)

// TransactionsTopic carries ledger events for the journal worker.
const TransactionsTopic = "voice.transactions"

// MessageBus publishes ledger events. The NATS transport implements it;
// tests use in-memory fakes.
type MessageBus interface {
	Publish(topic string, data []byte) error
}
