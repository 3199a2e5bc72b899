package vault

import (
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/guardian"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// EventType names the vault's observable notifications.
type EventType string

const (
	// EventLiveness is the initialization/liveness signal.
	EventLiveness EventType = "liveness"
	// EventGuardianRootChanged carries the new directory root.
	EventGuardianRootChanged EventType = "guardian-root-changed"
	// EventOwnershipTransferred carries the previous and new owner.
	EventOwnershipTransferred EventType = "ownership-transferred"
	// EventRecoveryExecuted carries the claimed guardian, destination owner,
	// claimed delay, and the presented proof.
	EventRecoveryExecuted EventType = "recovery-executed"
)

// Event is one append-only notification. Seq starts at 1 and never repeats
// within a vault instance.
type Event struct {
	Seq  uint64
	Time time.Time
	Type EventType

	// Ownership events.
	PrevOwner identity.Identity
	NewOwner  identity.Identity

	// Guardian directory events.
	Root guardian.Hash

	// Recovery events.
	Guardian identity.Identity
	Delay    time.Duration
	Proof    guardian.Proof
}

// Sink observes events as they are appended. Record is invoked after the
// originating operation has fully committed, in sequence order, under the
// vault's serialization lock.
type Sink interface {
	Record(Event)
}
