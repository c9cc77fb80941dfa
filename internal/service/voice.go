// Package service defines the operation surface of the voice ledger. All
// transport layers (HTTP, NATS) depend on this interface, not on the
// concrete ledger implementation.
package service

import (
	"context"

	"voice/internal/asset"
	"voice/internal/ledger"
)

// Voice is the capability-gated call surface of the ledger. The caller
// argument on every mutating operation is the authenticated identity the
// transport established; the ledger checks it against the tenant issuer,
// record owner or ledger owner before touching state.
type Voice interface {
	Create(ctx context.Context, caller, tenant, issuer string, maxSupply asset.Amount, decayPeriod, decayRateX10M int64) error
	Open(ctx context.Context, caller, tenant, owner string, sym asset.Symbol, ramPayer string) error
	Issue(ctx context.Context, caller, tenant, to string, quantity asset.Amount, memo string) error
	Transfer(ctx context.Context, caller, tenant, from, to string, quantity asset.Amount, memo string) error
	Decay(ctx context.Context, tenant, owner string, sym asset.Symbol) error
	VoiceReset(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error
	Reset(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error
	Close(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error
	Del(ctx context.Context, caller, tenant string, sym asset.Symbol) error

	Supply(ctx context.Context, tenant, symbol string) (asset.Amount, error)
	Balance(ctx context.Context, tenant, owner, symbol string) (asset.Amount, error)
	Tenants(ctx context.Context, symbol string) ([]ledger.Tenant, error)
	Accounts(ctx context.Context, owner string) ([]ledger.Account, error)
}
