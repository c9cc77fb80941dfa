// Package repository persists the ledger tables in PostgreSQL, with a Redis
// read cache for account balances and a transaction journal fed by the bus
// worker.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"voice/internal/asset"
	"voice/internal/ledger"
)

// Store implements ledger.Store on a pgx pool. Mutations run in a single
// database transaction; rows read inside Update are locked FOR UPDATE so the
// validate-then-commit sequence sees a stable snapshot.
type Store struct {
	db    *pgxpool.Pool
	cache *Cache
}

// NewStore wraps the pool. cache may be nil to disable balance caching.
func NewStore(db *pgxpool.Pool, cache *Cache) *Store {
	return &Store{db: db, cache: cache}
}

func (s *Store) Update(ctx context.Context, fn func(ledger.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	pt := &pgTx{ctx: ctx, q: tx, forUpdate: true}
	if err := fn(pt); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	// Drop cached balances for every account the transaction wrote; the
	// next read warms the cache from the committed rows.
	if s.cache != nil && len(pt.touched) > 0 {
		s.cache.Invalidate(ctx, pt.touched...)
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	return fn(&pgTx{ctx: ctx, q: s.db, cache: s.cache})
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTx struct {
	ctx       context.Context
	q         querier
	cache     *Cache
	forUpdate bool
	touched   []string
}

const tenantColumns = `symbol, tenant, issuer, supply, max_supply, precision, decay_period, decay_rate_x10m`

func (t *pgTx) Tenant(symbol, tenant string) (*ledger.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE symbol = $1 AND tenant = $2`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}
	st, err := scanTenant(t.q.QueryRow(t.ctx, query, symbol, tenant))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownTenant, tenant)
	}
	if err != nil {
		return nil, fmt.Errorf("query tenant: %w", err)
	}
	return st, nil
}

func (t *pgTx) PutTenant(st *ledger.Tenant) error {
	_, err := t.q.Exec(t.ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, tenant) DO UPDATE SET
			issuer = EXCLUDED.issuer,
			supply = EXCLUDED.supply,
			max_supply = EXCLUDED.max_supply,
			decay_period = EXCLUDED.decay_period,
			decay_rate_x10m = EXCLUDED.decay_rate_x10m`,
		st.Symbol().Code, st.Tenant, st.Issuer, st.Supply.Value, st.MaxSupply.Value,
		int16(st.Symbol().Precision), st.DecayPeriod, st.DecayRateX10M,
	)
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteTenant(symbol, tenant string) error {
	_, err := t.q.Exec(t.ctx, `DELETE FROM tenants WHERE symbol = $1 AND tenant = $2`, symbol, tenant)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}

const accountColumns = `tenant, owner, symbol, balance, precision, last_decay_period`

func (t *pgTx) Account(tenant, owner, symbol string) (*ledger.Account, error) {
	// Read path goes through the cache; mutating transactions always hit
	// the locked row.
	if t.cache != nil && !t.forUpdate {
		if ac, err := t.cache.Get(t.ctx, tenant, owner, symbol); err == nil {
			return ac, nil
		}
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant = $1 AND owner = $2 AND symbol = $3`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}
	ac, err := scanAccount(t.q.QueryRow(t.ctx, query, tenant, owner, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: tenant %s, member %s", ledger.ErrUnknownAccount, tenant, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}

	if t.cache != nil && !t.forUpdate {
		t.cache.Set(t.ctx, ac)
	}
	return ac, nil
}

func (t *pgTx) PutAccount(ac *ledger.Account) error {
	_, err := t.q.Exec(t.ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant, owner, symbol) DO UPDATE SET
			balance = EXCLUDED.balance,
			last_decay_period = EXCLUDED.last_decay_period`,
		ac.Tenant, ac.Owner, ac.Balance.Symbol.Code, ac.Balance.Value,
		int16(ac.Balance.Symbol.Precision), ac.LastDecayPeriod,
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	t.touched = append(t.touched, balanceKey(ac.Tenant, ac.Owner, ac.Balance.Symbol.Code))
	return nil
}

func (t *pgTx) DeleteAccount(tenant, owner, symbol string) error {
	_, err := t.q.Exec(t.ctx, `DELETE FROM accounts WHERE tenant = $1 AND owner = $2 AND symbol = $3`, tenant, owner, symbol)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	t.touched = append(t.touched, balanceKey(tenant, owner, symbol))
	return nil
}

func (t *pgTx) TenantsBySymbol(symbol string) ([]ledger.Tenant, error) {
	rows, err := t.q.Query(t.ctx, `SELECT `+tenantColumns+` FROM tenants WHERE symbol = $1 ORDER BY tenant`, symbol)
	if err != nil {
		return nil, fmt.Errorf("scan tenants: %w", err)
	}
	defer rows.Close()

	var out []ledger.Tenant
	for rows.Next() {
		st, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenants: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (t *pgTx) AccountsByOwner(owner string) ([]ledger.Account, error) {
	rows, err := t.q.Query(t.ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner = $1 ORDER BY tenant, symbol`, owner)
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		ac, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan accounts: %w", err)
		}
		out = append(out, *ac)
	}
	return out, rows.Err()
}

func scanTenant(row pgx.Row) (*ledger.Tenant, error) {
	var (
		st               ledger.Tenant
		symbol           string
		supply, maxSup   int64
		precision        int16
		period, rateX10M int64
	)
	if err := row.Scan(&symbol, &st.Tenant, &st.Issuer, &supply, &maxSup, &precision, &period, &rateX10M); err != nil {
		return nil, err
	}
	sym := asset.Symbol{Code: symbol, Precision: uint8(precision)}
	st.Supply = asset.New(supply, sym)
	st.MaxSupply = asset.New(maxSup, sym)
	st.DecayPeriod = period
	st.DecayRateX10M = rateX10M
	return &st, nil
}

func scanAccount(row pgx.Row) (*ledger.Account, error) {
	var (
		ac        ledger.Account
		symbol    string
		balance   int64
		precision int16
	)
	if err := row.Scan(&ac.Tenant, &ac.Owner, &symbol, &balance, &precision, &ac.LastDecayPeriod); err != nil {
		return nil, err
	}
	ac.Balance = asset.New(balance, asset.Symbol{Code: symbol, Precision: uint8(precision)})
	return &ac, nil
}
