package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voice/internal/asset"
	"voice/internal/decay"
)

// maxMemoBytes caps the free-form memo on issue and transfer.
const maxMemoBytes = 256

// resetFloorUnits is the voicereset floor in whole display units: any
// post-decay balance above one display unit snaps to exactly this many
// whole tokens.
const resetFloorUnits = 5000

// Service orchestrates all ledger mutations. Caller identity is threaded
// into every mutating operation and checked before any state change; there
// is no ambient authority. The owner identity gates the administrative
// operations (voicereset, reset, del).
type Service struct {
	store Store
	bus   MessageBus
	owner string
	now   func() int64
}

// NewService builds a ledger service. bus may be nil when no event
// publishing is wanted (tests, cmd/migrate).
func NewService(store Store, owner string, bus MessageBus) *Service {
	return &Service{
		store: store,
		bus:   bus,
		owner: owner,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// WithClock overrides the time source. Tests drive decay with it.
func (s *Service) WithClock(now func() int64) *Service {
	s.now = now
	return s
}

// Create registers a (symbol, tenant) pair with zero supply. A negative
// maxSupply amount means the supply is uncapped.
func (s *Service) Create(ctx context.Context, caller, tenant, issuer string, maxSupply asset.Amount, decayPeriod, decayRateX10M int64) error {
	if caller != issuer {
		return fmt.Errorf("%w: create requires issuer %s", ErrUnauthorized, issuer)
	}
	if !maxSupply.Symbol.Valid() {
		return fmt.Errorf("%w: invalid symbol %s", ErrInvalidSupplyCap, maxSupply.Symbol)
	}
	if maxSupply.IsZero() {
		return fmt.Errorf("%w: max supply must not be zero", ErrInvalidSupplyCap)
	}
	if decayPeriod <= 0 {
		return fmt.Errorf("%w: decay period must be positive", ErrInvalidDecayParams)
	}
	if decayRateX10M < 0 || decayRateX10M > decay.RateScale {
		return fmt.Errorf("%w: decay rate must be between 0 and %d", ErrInvalidDecayParams, decay.RateScale)
	}

	err := s.store.Update(ctx, func(tx Tx) error {
		if _, err := tx.Tenant(maxSupply.Symbol.Code, tenant); err == nil {
			return fmt.Errorf("%w: %s/%s", ErrTenantExists, maxSupply.Symbol.Code, tenant)
		}
		return tx.PutTenant(&Tenant{
			Tenant:        tenant,
			Issuer:        issuer,
			Supply:        asset.New(0, maxSupply.Symbol),
			MaxSupply:     maxSupply,
			DecayPeriod:   decayPeriod,
			DecayRateX10M: decayRateX10M,
		})
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventCreate, Tenant: tenant, Symbol: maxSupply.Symbol.Code, To: issuer})
	return nil
}

// Open creates a zero-balance record for owner, paid for by ramPayer.
// Opening an already-open pair is a no-op success: neither the balance nor
// the decay clock moves.
func (s *Service) Open(ctx context.Context, caller, tenant, owner string, sym asset.Symbol, ramPayer string) error {
	if caller != ramPayer {
		return fmt.Errorf("%w: open requires ram payer %s", ErrUnauthorized, ramPayer)
	}

	opened := false
	err := s.store.Update(ctx, func(tx Tx) error {
		st, err := tx.Tenant(sym.Code, tenant)
		if err != nil {
			return err
		}
		if st.Symbol() != sym {
			return fmt.Errorf("%w: %s vs %s", asset.ErrMismatchedAsset, st.Symbol(), sym)
		}
		if _, err := tx.Account(tenant, owner, sym.Code); err == nil {
			return nil
		}
		opened = true
		return tx.PutAccount(&Account{
			Tenant:          tenant,
			Owner:           owner,
			Balance:         asset.New(0, sym),
			LastDecayPeriod: s.now(),
		})
	})
	if err != nil {
		return err
	}
	if opened {
		s.publish(Event{Kind: EventOpen, Tenant: tenant, Symbol: sym.Code, To: owner})
	}
	return nil
}

// Issue mints quantity into to's account, growing the tenant supply. Only
// the tenant issuer may issue. The target account is opened implicitly when
// absent.
func (s *Service) Issue(ctx context.Context, caller, tenant, to string, quantity asset.Amount, memo string) error {
	if err := checkMemo(memo); err != nil {
		return err
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: must issue a positive quantity", asset.ErrMalformedAmount)
	}

	err := s.store.Update(ctx, func(tx Tx) error {
		st, err := tx.Tenant(quantity.Symbol.Code, tenant)
		if err != nil {
			return err
		}
		if caller != st.Issuer {
			return fmt.Errorf("%w: issue requires issuer %s", ErrUnauthorized, st.Issuer)
		}
		if quantity.Symbol != st.Symbol() {
			return fmt.Errorf("%w: %s vs %s", asset.ErrMismatchedAsset, st.Symbol(), quantity.Symbol)
		}

		if err := s.adjustSupply(st, quantity.Value); err != nil {
			return err
		}
		if err := s.credit(tx, st, to, quantity, true); err != nil {
			return err
		}
		return tx.PutTenant(st)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventIssue, Tenant: tenant, Symbol: quantity.Symbol.Code, To: to, Quantity: quantity.String(), Memo: memo})
	return nil
}

// Transfer moves quantity from one holder to another. Decay is applied to
// each side against its own decay clock before the move; the receiving
// record must already be open. Supply only changes through the decay the
// transfer itself triggers.
func (s *Service) Transfer(ctx context.Context, caller, tenant, from, to string, quantity asset.Amount, memo string) error {
	if from == to {
		return ErrSelfTransfer
	}
	if caller != from {
		return fmt.Errorf("%w: transfer requires authority of %s", ErrUnauthorized, from)
	}
	if err := checkMemo(memo); err != nil {
		return err
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: must transfer a positive quantity", asset.ErrMalformedAmount)
	}

	err := s.store.Update(ctx, func(tx Tx) error {
		st, err := tx.Tenant(quantity.Symbol.Code, tenant)
		if err != nil {
			return err
		}
		if quantity.Symbol != st.Symbol() {
			return fmt.Errorf("%w: %s vs %s", asset.ErrMismatchedAsset, st.Symbol(), quantity.Symbol)
		}
		if err := s.debit(tx, st, from, quantity); err != nil {
			return err
		}
		if err := s.credit(tx, st, to, quantity, false); err != nil {
			return err
		}
		return tx.PutTenant(st)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventTransfer, Tenant: tenant, Symbol: quantity.Symbol.Code, From: from, To: to, Quantity: quantity.String(), Memo: memo})
	return nil
}

// Decay applies any pending lazy decay to one account. Anyone may trigger
// it; a missing account is a no-op.
func (s *Service) Decay(ctx context.Context, tenant, owner string, sym asset.Symbol) error {
	return s.store.Update(ctx, func(tx Tx) error {
		st, err := tx.Tenant(sym.Code, tenant)
		if err != nil {
			return err
		}
		ac, err := tx.Account(tenant, owner, sym.Code)
		if err != nil {
			return nil
		}
		if !s.applyDecay(st, ac) {
			return nil
		}
		if err := tx.PutAccount(ac); err != nil {
			return err
		}
		return tx.PutTenant(st)
	})
}

// VoiceReset snaps a holder's post-decay balance to the reset floor of 5000
// whole tokens, unless the balance is already at or below one whole display
// unit, in which case it is left alone. Supply shifts by exactly the delta.
func (s *Service) VoiceReset(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error {
	if caller != s.owner {
		return fmt.Errorf("%w: voicereset requires the ledger owner", ErrUnauthorized)
	}

	var delta string
	err := s.store.Update(ctx, func(tx Tx) error {
		st, err := tx.Tenant(sym.Code, tenant)
		if err != nil {
			return err
		}
		ac, err := tx.Account(tenant, owner, sym.Code)
		if err != nil {
			return err
		}
		s.applyDecay(st, ac)

		unit := st.Symbol().Unit()
		if ac.Balance.Value > unit {
			floor := resetFloorUnits * unit
			if err := s.adjustSupply(st, floor-ac.Balance.Value); err != nil {
				return err
			}
			delta = asset.New(floor-ac.Balance.Value, st.Symbol()).String()
			ac.Balance.Value = floor
		}
		if err := tx.PutAccount(ac); err != nil {
			return err
		}
		return tx.PutTenant(st)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventVoiceReset, Tenant: tenant, Symbol: sym.Code, To: owner, Quantity: delta})
	return nil
}

// Reset wipes a holder's balance to zero and re-arms the decay clock. This
// exists to reinitialize test fixtures; it is gated on the ledger owner and
// deliberately sits outside normal accounting. A missing account is a no-op.
func (s *Service) Reset(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error {
	if caller != s.owner {
		return fmt.Errorf("%w: reset requires the ledger owner", ErrUnauthorized)
	}

	err := s.store.Update(ctx, func(tx Tx) error {
		st, err := tx.Tenant(sym.Code, tenant)
		if err != nil {
			return err
		}
		ac, err := tx.Account(tenant, owner, sym.Code)
		if err != nil {
			return nil
		}
		if err := s.adjustSupply(st, -ac.Balance.Value); err != nil {
			return err
		}
		ac.Balance.Value = 0
		ac.LastDecayPeriod = s.now()
		if err := tx.PutAccount(ac); err != nil {
			return err
		}
		return tx.PutTenant(st)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventReset, Tenant: tenant, Symbol: sym.Code, To: owner})
	return nil
}

// Close removes a zero-balance account record. The owner of the record must
// authorize it.
func (s *Service) Close(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error {
	if caller != owner {
		return fmt.Errorf("%w: close requires authority of %s", ErrUnauthorized, owner)
	}
	err := s.store.Update(ctx, func(tx Tx) error {
		ac, err := tx.Account(tenant, owner, sym.Code)
		if err != nil {
			return err
		}
		if !ac.Balance.IsZero() {
			return ErrNonZeroBalance
		}
		return tx.DeleteAccount(tenant, owner, sym.Code)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventClose, Tenant: tenant, Symbol: sym.Code, From: owner})
	return nil
}

// Del removes a tenant's registry entry. Ledger-owner only.
func (s *Service) Del(ctx context.Context, caller, tenant string, sym asset.Symbol) error {
	if caller != s.owner {
		return fmt.Errorf("%w: del requires the ledger owner", ErrUnauthorized)
	}
	err := s.store.Update(ctx, func(tx Tx) error {
		if _, err := tx.Tenant(sym.Code, tenant); err != nil {
			return err
		}
		return tx.DeleteTenant(sym.Code, tenant)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventDelete, Tenant: tenant, Symbol: sym.Code})
	return nil
}

// Supply returns the running supply of a tenant.
func (s *Service) Supply(ctx context.Context, tenant, symbol string) (asset.Amount, error) {
	var out asset.Amount
	err := s.store.View(ctx, func(tx Tx) error {
		st, err := tx.Tenant(symbol, tenant)
		if err != nil {
			return err
		}
		out = st.Supply
		return nil
	})
	return out, err
}

// Balance returns a holder's stored balance. Decay is not folded in here:
// reads are passive, the balance shrinks when the account is next touched.
func (s *Service) Balance(ctx context.Context, tenant, owner, symbol string) (asset.Amount, error) {
	var out asset.Amount
	err := s.store.View(ctx, func(tx Tx) error {
		ac, err := tx.Account(tenant, owner, symbol)
		if err != nil {
			return err
		}
		out = ac.Balance
		return nil
	})
	return out, err
}

// Tenants lists all tenant records under one symbol code (the stat table).
func (s *Service) Tenants(ctx context.Context, symbol string) ([]Tenant, error) {
	var out []Tenant
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.TenantsBySymbol(symbol)
		return err
	})
	return out, err
}

// Accounts lists all account records held by one owner.
func (s *Service) Accounts(ctx context.Context, owner string) ([]Account, error) {
	var out []Account
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.AccountsByOwner(owner)
		return err
	})
	return out, err
}

// applyDecay folds pending decay into the account and mirrors the removed
// amount into the tenant supply, keeping supply == sum of balances.
func (s *Service) applyDecay(st *Tenant, ac *Account) bool {
	res := decay.Apply(ac.Balance.Value, ac.LastDecayPeriod, decay.Config{
		Period:   st.DecayPeriod,
		RateX10M: st.DecayRateX10M,
		Now:      s.now(),
	})
	if !res.Changed {
		return false
	}
	st.Supply.Value += res.Balance - ac.Balance.Value
	ac.Balance.Value = res.Balance
	ac.LastDecayPeriod = res.LastPeriod
	return true
}

// adjustSupply applies a signed delta to the tenant supply, enforcing the
// cap and the non-negativity of supply.
func (s *Service) adjustSupply(st *Tenant, delta int64) error {
	next := st.Supply.Value + delta
	if next < 0 {
		return fmt.Errorf("%w: tenant %s", ErrSupplyUnderflow, st.Tenant)
	}
	if !st.MaxSupply.IsNegative() && next > st.MaxSupply.Value {
		return fmt.Errorf("%w: cap %s", ErrSupplyCapExceeded, st.MaxSupply)
	}
	st.Supply.Value = next
	return nil
}

func (s *Service) credit(tx Tx, st *Tenant, owner string, quantity asset.Amount, autoOpen bool) error {
	ac, err := tx.Account(st.Tenant, owner, quantity.Symbol.Code)
	if err != nil {
		if !autoOpen {
			return err
		}
		return tx.PutAccount(&Account{
			Tenant:          st.Tenant,
			Owner:           owner,
			Balance:         quantity,
			LastDecayPeriod: s.now(),
		})
	}
	s.applyDecay(st, ac)
	ac.Balance, err = ac.Balance.Add(quantity)
	if err != nil {
		return err
	}
	return tx.PutAccount(ac)
}

func (s *Service) debit(tx Tx, st *Tenant, owner string, quantity asset.Amount) error {
	ac, err := tx.Account(st.Tenant, owner, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	s.applyDecay(st, ac)
	ac.Balance, err = ac.Balance.Sub(quantity)
	if err != nil {
		return err
	}
	return tx.PutAccount(ac)
}

func checkMemo(memo string) error {
	if len(memo) > maxMemoBytes {
		return ErrMemoTooLong
	}
	return nil
}

// publish emits an event on the bus. Publishing is best-effort: the
// mutation already committed, a bus outage must not fail the call.
func (s *Service) publish(ev Event) {
	if s.bus == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.bus.Publish(TransactionsTopic, data); err != nil {
		slog.Error("ledger: failed to publish event", "kind", ev.Kind, "tenant", ev.Tenant, "error", err)
	}
}
