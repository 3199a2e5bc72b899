// Package vault implements the social-recovery asset vault: a single owned
// aggregate holding custody of native currency and externally-registered
// assets, with guardian-based ownership recovery gated on owner inactivity.
//
// All state-changing operations are serialized by one lock and are
// all-or-nothing: every failure path returns before any field mutates.
// Successful owner-authorized operations refresh the liveness timestamp as a
// cross-cutting post-condition.
package vault

import (
	"sync"
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/guardian"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// Options configures a vault instance.
type Options struct {
	// Self is the vault's own identity, recorded as holder in external
	// asset ledgers.
	Self identity.Identity

	// Clock supplies the transaction timestamp; nil means time.Now. The
	// clock source is trusted and expected to be monotonic across calls.
	Clock func() time.Time

	// Sink, when non-nil, additionally observes every emitted event.
	Sink Sink

	// PayNative, when non-nil, delivers withdrawn native currency to the
	// destination. It runs before the balance is debited; an error aborts
	// the withdrawal with no state change.
	PayNative func(to identity.Identity, amount uint64) error
}

// Vault is the state machine. The zero value is unusable; construct with New.
type Vault struct {
	mu        sync.Mutex
	self      identity.Identity
	clock     func() time.Time
	sink      Sink
	payNative func(to identity.Identity, amount uint64) error

	initialized  bool
	owner        identity.Identity
	lastActivity time.Time
	guardianRoot guardian.Hash
	native       uint64

	seq    uint64
	events []Event
}

// New constructs an uninitialized vault.
func New(opts Options) *Vault {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Vault{
		self:      opts.Self,
		clock:     clock,
		sink:      opts.Sink,
		payNative: opts.PayNative,
	}
}

// Initialize performs the one-time setup: assigns the initial owner, commits
// the initial guardian root, and starts the liveness clock. It fails with
// ErrAlreadyInitialized on any subsequent call.
func (v *Vault) Initialize(initialOwner identity.Identity, initialRoot guardian.Hash) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.initialized {
		return ErrAlreadyInitialized
	}
	if initialOwner.IsZero() {
		return ErrZeroOwner
	}
	now := v.clock()
	v.initialized = true
	v.owner = initialOwner
	v.guardianRoot = initialRoot
	v.lastActivity = now
	v.emit(Event{Time: now, Type: EventLiveness})
	v.emit(Event{Time: now, Type: EventGuardianRootChanged, Root: initialRoot})
	v.emit(Event{Time: now, Type: EventOwnershipTransferred, PrevOwner: identity.Zero, NewOwner: initialOwner})
	return nil
}

// Ping is the dedicated no-op liveness action: owner-only, refreshes the
// liveness timestamp, and has no other effect.
func (v *Vault) Ping(caller identity.Identity) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	now := v.clock()
	v.touch(now)
	v.emit(Event{Time: now, Type: EventLiveness})
	return nil
}

// TransferOwnership reassigns the owner. Owner-only.
func (v *Vault) TransferOwnership(caller, newOwner identity.Identity) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return ErrZeroOwner
	}
	now := v.clock()
	prev := v.owner
	v.owner = newOwner
	v.touch(now)
	v.emit(Event{Time: now, Type: EventOwnershipTransferred, PrevOwner: prev, NewOwner: newOwner})
	return nil
}

// SetGuardianRoot replaces the guardian directory commitment. Owner-only;
// updating the root is itself evidence of owner activity.
func (v *Vault) SetGuardianRoot(caller identity.Identity, newRoot guardian.Hash) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	now := v.clock()
	v.guardianRoot = newRoot
	v.touch(now)
	v.emit(Event{Time: now, Type: EventGuardianRootChanged, Root: newRoot})
	return nil
}

// RecoverTo reassigns ownership on behalf of a committed guardian whose
// delay has elapsed since the last owner activity.
//
// Proof of membership is the sole authorization: caller is accepted from
// anyone and never compared against claimedGuardian, so anyone holding a
// guardian's valid proof may relay the recovery to any destination owner.
func (v *Vault) RecoverTo(caller, claimedGuardian identity.Identity, claimedDelay time.Duration, proof guardian.Proof, newOwner identity.Identity) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return ErrNotInitialized
	}
	if newOwner.IsZero() {
		return ErrZeroOwner
	}
	leaf := guardian.Leaf(claimedGuardian, claimedDelay)
	if !guardian.Verify(leaf, proof, v.guardianRoot) {
		return ErrInvalidProof
	}
	now := v.clock()
	elapsed, err := v.elapsed(now)
	if err != nil {
		return err
	}
	if elapsed < claimedDelay {
		return ErrDelayNotElapsed
	}
	prev := v.owner
	v.owner = newOwner
	v.touch(now)
	v.emit(Event{Time: now, Type: EventOwnershipTransferred, PrevOwner: prev, NewOwner: newOwner})
	v.emit(Event{
		Time:     now,
		Type:     EventRecoveryExecuted,
		Guardian: claimedGuardian,
		NewOwner: newOwner,
		Delay:    claimedDelay,
		Proof:    proof,
	})
	return nil
}

// Self returns the vault's own identity.
func (v *Vault) Self() identity.Identity {
	return v.self
}

// Initialized reports whether initialization has run.
func (v *Vault) Initialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

// Owner returns the current owner.
func (v *Vault) Owner() identity.Identity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.owner
}

// LastActivity returns the liveness timestamp.
func (v *Vault) LastActivity() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastActivity
}

// GuardianRoot returns the committed directory root.
func (v *Vault) GuardianRoot() guardian.Hash {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.guardianRoot
}

// IsGuardian reports whether (id, delay) is committed under the live root.
// Read-only; never an error for malformed proofs.
func (v *Vault) IsGuardian(id identity.Identity, delay time.Duration, proof guardian.Proof) bool {
	v.mu.Lock()
	root := v.guardianRoot
	v.mu.Unlock()
	return guardian.Verify(guardian.Leaf(id, delay), proof, root)
}

// LastSeq returns the sequence number of the most recently emitted event,
// or 0 before any event.
func (v *Vault) LastSeq() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq
}

// Events returns a copy of all events with Seq greater than after.
// Events(0) returns the full log.
func (v *Vault) Events(after uint64) []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []Event
	for _, e := range v.events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

// requireOwner is the shared authorization gate for privileged operations.
// It has no side effects; the liveness refresh happens only after the whole
// operation has passed its own checks.
func (v *Vault) requireOwner(caller identity.Identity) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if caller != v.owner {
		return ErrNotOwner
	}
	return nil
}

// touch refreshes the liveness timestamp, keeping it monotone even if the
// clock source momentarily stalls.
func (v *Vault) touch(now time.Time) {
	if now.After(v.lastActivity) {
		v.lastActivity = now
	}
}

func (v *Vault) elapsed(now time.Time) (time.Duration, error) {
	if now.Before(v.lastActivity) {
		return 0, ErrClockRegression
	}
	return now.Sub(v.lastActivity), nil
}

func (v *Vault) emit(e Event) {
	v.seq++
	e.Seq = v.seq
	v.events = append(v.events, e)
	if v.sink != nil {
		v.sink.Record(e)
	}
}
