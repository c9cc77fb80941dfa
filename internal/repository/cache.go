package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"voice/internal/asset"
	"voice/internal/ledger"
)

// Cache holds account records in Redis for the read path. It is a warm
// cache over the authoritative Postgres rows: entries are written on read
// misses and dropped whenever a transaction touches the row. No TTL — the
// invalidation on write keeps it honest.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

type cachedAccount struct {
	Balance         int64  `json:"balance"`
	Precision       uint8  `json:"precision"`
	LastDecayPeriod int64  `json:"last_decay_period"`
	Symbol          string `json:"symbol"`
}

func balanceKey(tenant, owner, symbol string) string {
	return fmt.Sprintf("balance:%s:%s:%s", tenant, owner, symbol)
}

func (c *Cache) Get(ctx context.Context, tenant, owner, symbol string) (*ledger.Account, error) {
	data, err := c.rdb.Get(ctx, balanceKey(tenant, owner, symbol)).Bytes()
	if err != nil {
		return nil, err
	}
	var ca cachedAccount
	if err := json.Unmarshal(data, &ca); err != nil {
		return nil, err
	}
	return &ledger.Account{
		Tenant:          tenant,
		Owner:           owner,
		Balance:         asset.New(ca.Balance, asset.Symbol{Code: ca.Symbol, Precision: ca.Precision}),
		LastDecayPeriod: ca.LastDecayPeriod,
	}, nil
}

// Set stores an account record. Failures are logged and swallowed: the
// cache never gets to fail a read that already has the row.
func (c *Cache) Set(ctx context.Context, ac *ledger.Account) {
	data, err := json.Marshal(cachedAccount{
		Balance:         ac.Balance.Value,
		Precision:       ac.Balance.Symbol.Precision,
		LastDecayPeriod: ac.LastDecayPeriod,
		Symbol:          ac.Balance.Symbol.Code,
	})
	if err != nil {
		return
	}
	key := balanceKey(ac.Tenant, ac.Owner, ac.Balance.Symbol.Code)
	if err := c.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		slog.Error("cache: failed to warm balance", "key", key, "error", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Error("cache: failed to invalidate balances", "keys", keys, "error", err)
	}
}
