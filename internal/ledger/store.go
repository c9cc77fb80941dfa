package ledger

import "context"

// Store is the keyed-table persistence the ledger runs against. Update runs
// fn inside a single all-or-nothing transaction: if fn returns an error,
// nothing it wrote is persisted. The host serializes calls, so
// implementations only need transaction-level isolation, not internal
// locking of ledger state.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the table surface visible inside one transaction. Lookups return
// ErrUnknownTenant / ErrUnknownAccount (wrapped) on absent keys.
type Tx interface {
	Tenant(symbol, tenant string) (*Tenant, error)
	PutTenant(t *Tenant) error
	DeleteTenant(symbol, tenant string) error

	Account(tenant, owner, symbol string) (*Account, error)
	PutAccount(a *Account) error
	DeleteAccount(tenant, owner, symbol string) error

	// TenantsBySymbol scans the stat table for one symbol code;
	// AccountsByOwner scans the accounts table for one holder.
	TenantsBySymbol(symbol string) ([]Tenant, error)
	AccountsByOwner(owner string) ([]Account, error)
}
