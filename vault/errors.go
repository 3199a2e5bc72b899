package vault

import "errors"

// Every rejection below is a normal, testable failure: the operation aborts
// with no state change and the error is surfaced directly to the caller.
var (
	ErrAlreadyInitialized  = errors.New("vault: already initialized")
	ErrNotInitialized      = errors.New("vault: not initialized")
	ErrNotOwner            = errors.New("vault: caller is not the owner")
	ErrInvalidProof        = errors.New("vault: invalid guardian proof")
	ErrDelayNotElapsed     = errors.New("vault: guardian delay not elapsed")
	ErrInsufficientBalance = errors.New("vault: insufficient native balance")
	ErrZeroOwner           = errors.New("vault: owner must not be the zero identity")
	ErrClockRegression     = errors.New("vault: clock behind last recorded activity")
	ErrBalanceOverflow     = errors.New("vault: native balance overflow")
	ErrBatchMismatch       = errors.New("vault: batch classes and amounts differ in length")
	ErrNilLedger           = errors.New("vault: nil asset ledger")
)
