package vault

import (
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"

	"golang.org/x/crypto/sha3"
)

// External asset ledgers. The vault never duplicates their state: it is
// merely recorded as holder, and withdrawal triggers a transfer out of the
// vault's own identity. Ledger errors (including their insufficient-funds
// conditions) pass through to the caller unchanged.

// ItemLedger is a registry of unique, indivisible items.
type ItemLedger interface {
	TransferItem(from, to identity.Identity, item uint64) error
}

// UnitLedger is a registry of fungible unit classes.
type UnitLedger interface {
	TransferUnits(from, to identity.Identity, class, amount uint64) error
}

// Ack is the acknowledgment value a receipt hook must return for the
// sending registry to treat the transfer as accepted. Any other value (or
// an error) means rejection.
type Ack [4]byte

var (
	// AckItemReceipt acknowledges a single item receipt.
	AckItemReceipt = ackFor("vault/OnItemReceived")
	// AckUnitsReceipt acknowledges a single unit-class receipt.
	AckUnitsReceipt = ackFor("vault/OnUnitsReceived")
	// AckUnitsBatchReceipt acknowledges a batch unit-class receipt.
	AckUnitsBatchReceipt = ackFor("vault/OnUnitsBatchReceived")
)

// ackFor derives a stable 4-byte acknowledgment from the hook signature.
func ackFor(sig string) Ack {
	sum := sha3.Sum256([]byte(sig))
	var a Ack
	copy(a[:], sum[:4])
	return a
}
