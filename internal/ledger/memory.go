package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps all tables in process memory. It backs the test suites
// and embedded use; the repository package provides the Postgres store.
type MemoryStore struct {
	mu       sync.Mutex
	tenants  map[string]Tenant
	accounts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:  make(map[string]Tenant),
		accounts: make(map[string]Account),
	}
}

func tenantKey(symbol, tenant string) string {
	return symbol + "/" + tenant
}

func accountKey(tenant, owner, symbol string) string {
	return tenant + "/" + owner + "/" + symbol
}

// Update stages writes in an overlay and applies them only when fn succeeds,
// giving the same all-or-nothing behavior as a database transaction.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(newMemTx(s))
}

type memTx struct {
	store *MemoryStore

	putTenants  map[string]Tenant
	delTenants  map[string]bool
	putAccounts map[string]Account
	delAccounts map[string]bool
}

func newMemTx(s *MemoryStore) *memTx {
	return &memTx{
		store:       s,
		putTenants:  make(map[string]Tenant),
		delTenants:  make(map[string]bool),
		putAccounts: make(map[string]Account),
		delAccounts: make(map[string]bool),
	}
}

func (tx *memTx) commit() {
	for k := range tx.delTenants {
		delete(tx.store.tenants, k)
	}
	for k, v := range tx.putTenants {
		tx.store.tenants[k] = v
	}
	for k := range tx.delAccounts {
		delete(tx.store.accounts, k)
	}
	for k, v := range tx.putAccounts {
		tx.store.accounts[k] = v
	}
}

func (tx *memTx) Tenant(symbol, tenant string) (*Tenant, error) {
	k := tenantKey(symbol, tenant)
	if tx.delTenants[k] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, tenant)
	}
	if t, ok := tx.putTenants[k]; ok {
		return &t, nil
	}
	if t, ok := tx.store.tenants[k]; ok {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, tenant)
}

func (tx *memTx) PutTenant(t *Tenant) error {
	k := tenantKey(t.Symbol().Code, t.Tenant)
	delete(tx.delTenants, k)
	tx.putTenants[k] = *t
	return nil
}

func (tx *memTx) DeleteTenant(symbol, tenant string) error {
	k := tenantKey(symbol, tenant)
	delete(tx.putTenants, k)
	tx.delTenants[k] = true
	return nil
}

func (tx *memTx) Account(tenant, owner, symbol string) (*Account, error) {
	k := accountKey(tenant, owner, symbol)
	if tx.delAccounts[k] {
		return nil, fmt.Errorf("%w: tenant %s, member %s", ErrUnknownAccount, tenant, owner)
	}
	if a, ok := tx.putAccounts[k]; ok {
		return &a, nil
	}
	if a, ok := tx.store.accounts[k]; ok {
		return &a, nil
	}
	return nil, fmt.Errorf("%w: tenant %s, member %s", ErrUnknownAccount, tenant, owner)
}

func (tx *memTx) PutAccount(a *Account) error {
	k := accountKey(a.Tenant, a.Owner, a.Balance.Symbol.Code)
	delete(tx.delAccounts, k)
	tx.putAccounts[k] = *a
	return nil
}

func (tx *memTx) DeleteAccount(tenant, owner, symbol string) error {
	k := accountKey(tenant, owner, symbol)
	delete(tx.putAccounts, k)
	tx.delAccounts[k] = true
	return nil
}

func (tx *memTx) TenantsBySymbol(symbol string) ([]Tenant, error) {
	var out []Tenant
	for _, t := range tx.merged() {
		if t.Symbol().Code == symbol {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tenant < out[j].Tenant })
	return out, nil
}

func (tx *memTx) AccountsByOwner(owner string) ([]Account, error) {
	var out []Account
	for k, a := range tx.store.accounts {
		if tx.delAccounts[k] {
			continue
		}
		if staged, ok := tx.putAccounts[k]; ok {
			a = staged
		}
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	for k, a := range tx.putAccounts {
		if _, ok := tx.store.accounts[k]; !ok && a.Owner == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tenant != out[j].Tenant {
			return out[i].Tenant < out[j].Tenant
		}
		return out[i].Balance.Symbol.Code < out[j].Balance.Symbol.Code
	})
	return out, nil
}

func (tx *memTx) merged() map[string]Tenant {
	m := make(map[string]Tenant, len(tx.store.tenants)+len(tx.putTenants))
	for k, t := range tx.store.tenants {
		if !tx.delTenants[k] {
			m[k] = t
		}
	}
	for k, t := range tx.putTenants {
		m[k] = t
	}
	return m
}
