// Package decay computes how a balance shrinks over elapsed periods. It is a
// pure function of its inputs: the ledger folds it into every balance touch
// instead of running a background timer.
package decay

// RateScale is the denominator of decay rates: a rate of 5_000_000 removes
// half of the balance per elapsed period.
const RateScale = 10_000_000

// Config carries a tenant's decay parameters plus the evaluation time.
// Times are opaque monotonic units (seconds in production).
type Config struct {
	Period   int64
	RateX10M int64
	Now      int64
}

// Result of a decay evaluation. Changed is false when no full period elapsed,
// in which case Balance and LastPeriod echo the inputs.
type Result struct {
	Changed    bool
	Balance    int64
	LastPeriod int64
}

// Apply decays balance for every full period elapsed since lastPeriod.
// Each step removes floor(balance*rate/RateScale), compounding. LastPeriod
// advances by whole periods only, so progress toward the next period is
// preserved rather than snapped to Now. Time running backwards, a zero rate
// or a zero period are all no-ops.
func Apply(balance, lastPeriod int64, cfg Config) Result {
	unchanged := Result{Balance: balance, LastPeriod: lastPeriod}
	if cfg.RateX10M <= 0 || cfg.Period <= 0 || lastPeriod > cfg.Now {
		return unchanged
	}

	periods := (cfg.Now - lastPeriod) / cfg.Period
	if periods < 1 {
		return unchanged
	}

	for i := int64(0); i < periods; i++ {
		removed := step(balance, cfg.RateX10M)
		if removed == 0 {
			// Later steps remove nothing either; the balance has
			// bottomed out for this rate.
			break
		}
		balance -= removed
	}

	return Result{
		Changed:    true,
		Balance:    balance,
		LastPeriod: lastPeriod + periods*cfg.Period,
	}
}

// step computes floor(balance*rate/RateScale) without overflowing int64 on
// large balances. Balances are non-negative by ledger invariant.
func step(balance, rate int64) int64 {
	return (balance/RateScale)*rate + (balance%RateScale)*rate/RateScale
}
