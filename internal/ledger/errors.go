package ledger

import "errors"

// Every service operation fails with exactly one of these (or one of the
// asset package errors for amount-level faults) and leaves persisted state
// untouched. UnknownTenant and UnknownAccount are deliberately distinct:
// the first means the tenant was never created, the second that the tenant
// exists but the holder never opened a record.
var (
	ErrUnknownTenant      = errors.New("unknown tenant")
	ErrUnknownAccount     = errors.New("no balance object found")
	ErrTenantExists       = errors.New("tenant already exists for symbol")
	ErrInvalidSupplyCap   = errors.New("invalid supply cap")
	ErrInvalidDecayParams = errors.New("invalid decay params")
	ErrSupplyCapExceeded  = errors.New("quantity exceeds available supply")
	ErrSupplyUnderflow    = errors.New("supply underflow")
	ErrUnauthorized       = errors.New("missing required authority")
	ErrSelfTransfer       = errors.New("cannot transfer to self")
	ErrMemoTooLong        = errors.New("memo has more than 256 bytes")
	ErrNonZeroBalance     = errors.New("cannot close account with non-zero balance")
)
