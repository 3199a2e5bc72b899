package vault

import (
	"errors"
	"testing"
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vault/vaulttest"
)

func TestReceiveNativeCredits(t *testing.T) {
	f := newFixture(t)
	if err := f.v.ReceiveNative(attacker, 700); err != nil {
		t.Fatalf("ReceiveNative: %v", err)
	}
	if err := f.v.ReceiveNative(owner, 300); err != nil {
		t.Fatalf("ReceiveNative: %v", err)
	}
	if got := f.v.NativeBalance(); got != 1000 {
		t.Fatalf("balance: %d", got)
	}
}

func TestReceiveNativeOverflow(t *testing.T) {
	f := newFixture(t)
	if err := f.v.ReceiveNative(attacker, ^uint64(0)); err != nil {
		t.Fatalf("ReceiveNative: %v", err)
	}
	if err := f.v.ReceiveNative(attacker, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	if got := f.v.NativeBalance(); got != ^uint64(0) {
		t.Fatalf("balance after rejected deposit: %d", got)
	}
}

// Third-party deposits must never register as owner activity; the same
// deposits from the owner must.
func TestDepositLivenessNeutrality(t *testing.T) {
	cases := []struct {
		name    string
		deposit func(v *Vault, from identity.Identity) error
	}{
		{"native", func(v *Vault, from identity.Identity) error {
			return v.ReceiveNative(from, 5)
		}},
		{"item", func(v *Vault, from identity.Identity) error {
			_, err := v.OnItemReceived(from, from, 42)
			return err
		}},
		{"units", func(v *Vault, from identity.Identity) error {
			_, err := v.OnUnitsReceived(from, from, 7, 5)
			return err
		}},
		{"units batch", func(v *Vault, from identity.Identity) error {
			_, err := v.OnUnitsBatchReceived(from, from, []uint64{7}, []uint64{5})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			start := f.v.LastActivity()

			f.clock.Advance(day)
			if err := tc.deposit(f.v, attacker); err != nil {
				t.Fatalf("third-party deposit: %v", err)
			}
			if !f.v.LastActivity().Equal(start) {
				t.Fatal("third-party deposit must not refresh liveness")
			}

			f.clock.Advance(day)
			if err := tc.deposit(f.v, owner); err != nil {
				t.Fatalf("owner deposit: %v", err)
			}
			if !f.v.LastActivity().Equal(f.clock.Now()) {
				t.Fatal("owner deposit must refresh liveness")
			}
		})
	}
}

func TestReceiptAcknowledgments(t *testing.T) {
	f := newFixture(t)
	if ack, err := f.v.OnItemReceived(relayer, attacker, 1); err != nil || ack != AckItemReceipt {
		t.Fatalf("item: ack %x err %v", ack, err)
	}
	if ack, err := f.v.OnUnitsReceived(relayer, attacker, 2, 10); err != nil || ack != AckUnitsReceipt {
		t.Fatalf("units: ack %x err %v", ack, err)
	}
	ack, err := f.v.OnUnitsBatchReceived(relayer, attacker, []uint64{2, 3}, []uint64{10, 20})
	if err != nil || ack != AckUnitsBatchReceipt {
		t.Fatalf("batch: ack %x err %v", ack, err)
	}
	if AckItemReceipt == AckUnitsReceipt || AckUnitsReceipt == AckUnitsBatchReceipt {
		t.Fatal("acknowledgment values must be distinct per hook")
	}
}

func TestBatchReceiptLengthMismatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.v.OnUnitsBatchReceived(relayer, attacker, []uint64{1, 2}, []uint64{10})
	if !errors.Is(err, ErrBatchMismatch) {
		t.Fatalf("expected ErrBatchMismatch, got %v", err)
	}
}

func TestTransferNative(t *testing.T) {
	f := newFixture(t)
	if err := f.v.ReceiveNative(attacker, 100); err != nil {
		t.Fatalf("ReceiveNative: %v", err)
	}

	if err := f.v.TransferNative(owner, heir, 101); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := f.v.NativeBalance(); got != 100 {
		t.Fatalf("balance after rejected withdrawal: %d", got)
	}

	f.clock.Advance(time.Hour)
	if err := f.v.TransferNative(owner, heir, 60); err != nil {
		t.Fatalf("TransferNative: %v", err)
	}
	if got := f.v.NativeBalance(); got != 40 {
		t.Fatalf("balance: %d", got)
	}
	if !f.v.LastActivity().Equal(f.clock.Now()) {
		t.Fatal("withdrawal must refresh liveness")
	}
}

func TestTransferNativeOwnerGateBeforeBalance(t *testing.T) {
	// A non-owner probing an empty vault learns nothing about the balance:
	// authorization is checked first.
	f := newFixture(t)
	if err := f.v.TransferNative(attacker, attacker, 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestTransferNativePaymentHook(t *testing.T) {
	clock := newManualClock()
	var paid []uint64
	v := New(Options{
		Clock: clock.Now,
		PayNative: func(to identity.Identity, amount uint64) error {
			if to != heir {
				return errors.New("unexpected destination")
			}
			paid = append(paid, amount)
			return nil
		},
	})
	if err := v.Initialize(owner, [32]byte{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.ReceiveNative(attacker, 50); err != nil {
		t.Fatalf("ReceiveNative: %v", err)
	}
	if err := v.TransferNative(owner, heir, 30); err != nil {
		t.Fatalf("TransferNative: %v", err)
	}
	if len(paid) != 1 || paid[0] != 30 {
		t.Fatalf("payments: %v", paid)
	}
}

func TestTransferNativePaymentFailureAborts(t *testing.T) {
	clock := newManualClock()
	hookErr := errors.New("delivery failed")
	v := New(Options{
		Clock:     clock.Now,
		PayNative: func(identity.Identity, uint64) error { return hookErr },
	})
	if err := v.Initialize(owner, [32]byte{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := v.ReceiveNative(attacker, 50); err != nil {
		t.Fatalf("ReceiveNative: %v", err)
	}
	start := v.LastActivity()
	clock.Advance(time.Hour)
	if err := v.TransferNative(owner, heir, 30); !errors.Is(err, hookErr) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if got := v.NativeBalance(); got != 50 {
		t.Fatalf("balance must be undebited, got %d", got)
	}
	if !v.LastActivity().Equal(start) {
		t.Fatal("failed withdrawal must not refresh liveness")
	}
}

func TestTransferItemThroughLedger(t *testing.T) {
	f := newFixture(t)
	ledger := vaulttest.NewItemLedger()
	ledger.Mint(f.v.Self(), 42)

	if err := f.v.TransferItem(attacker, ledger, attacker, 42); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.v.TransferItem(owner, nil, heir, 42); !errors.Is(err, ErrNilLedger) {
		t.Fatalf("expected ErrNilLedger, got %v", err)
	}

	f.clock.Advance(time.Hour)
	if err := f.v.TransferItem(owner, ledger, heir, 42); err != nil {
		t.Fatalf("TransferItem: %v", err)
	}
	if ledger.HolderOf(42) != heir {
		t.Fatal("item not delivered")
	}
	if !f.v.LastActivity().Equal(f.clock.Now()) {
		t.Fatal("withdrawal must refresh liveness")
	}
}

func TestTransferItemLedgerErrorPassesThrough(t *testing.T) {
	f := newFixture(t)
	ledger := vaulttest.NewItemLedger()
	// Item 7 is held by someone else; the vault cannot transfer it.
	ledger.Mint(attacker, 7)
	start := f.v.LastActivity()
	f.clock.Advance(time.Hour)
	err := f.v.TransferItem(owner, ledger, heir, 7)
	if !errors.Is(err, vaulttest.ErrNotHolder) {
		t.Fatalf("expected ledger error, got %v", err)
	}
	if !f.v.LastActivity().Equal(start) {
		t.Fatal("failed withdrawal must not refresh liveness")
	}
}

func TestTransferUnitsThroughLedger(t *testing.T) {
	f := newFixture(t)
	ledger := vaulttest.NewUnitLedger()
	ledger.Mint(f.v.Self(), 3, 100)

	if err := f.v.TransferUnits(owner, nil, heir, 3, 10); !errors.Is(err, ErrNilLedger) {
		t.Fatalf("expected ErrNilLedger, got %v", err)
	}
	if err := f.v.TransferUnits(owner, ledger, heir, 3, 101); !errors.Is(err, vaulttest.ErrInsufficientUnit) {
		t.Fatalf("expected ledger error, got %v", err)
	}
	if err := f.v.TransferUnits(owner, ledger, heir, 3, 40); err != nil {
		t.Fatalf("TransferUnits: %v", err)
	}
	if got := ledger.BalanceOf(heir, 3); got != 40 {
		t.Fatalf("heir balance: %d", got)
	}
	if got := ledger.BalanceOf(f.v.Self(), 3); got != 60 {
		t.Fatalf("vault balance: %d", got)
	}
}
