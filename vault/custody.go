package vault

import "github.com/Philogy/Social-Recovery-Asset-Vault/identity"

// Asset custody surface.
//
// Acceptance is unconditional: any depositor may pay in, and the receipt
// hooks return the registry-mandated acknowledgment. A deposit refreshes the
// liveness timestamp only when the depositor is the current owner; a
// third-party deposit is never observable as owner activity.

// ReceiveNative accepts a native-currency transfer in.
func (v *Vault) ReceiveNative(from identity.Identity, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return ErrNotInitialized
	}
	if v.native+amount < v.native {
		return ErrBalanceOverflow
	}
	v.native += amount
	if from == v.owner {
		v.touch(v.clock())
	}
	return nil
}

// OnItemReceived acknowledges receipt of a unique item.
func (v *Vault) OnItemReceived(operator, from identity.Identity, item uint64) (Ack, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return Ack{}, ErrNotInitialized
	}
	v.touchIfOwner(from)
	return AckItemReceipt, nil
}

// OnUnitsReceived acknowledges receipt of fungible units of one class.
func (v *Vault) OnUnitsReceived(operator, from identity.Identity, class, amount uint64) (Ack, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return Ack{}, ErrNotInitialized
	}
	v.touchIfOwner(from)
	return AckUnitsReceipt, nil
}

// OnUnitsBatchReceived acknowledges receipt of several unit classes at once.
// The classes and amounts slices must pair up exactly.
func (v *Vault) OnUnitsBatchReceived(operator, from identity.Identity, classes, amounts []uint64) (Ack, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return Ack{}, ErrNotInitialized
	}
	if len(classes) != len(amounts) {
		return Ack{}, ErrBatchMismatch
	}
	v.touchIfOwner(from)
	return AckUnitsBatchReceipt, nil
}

// TransferNative withdraws native currency to the destination. Owner-only.
func (v *Vault) TransferNative(caller, to identity.Identity, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	if amount > v.native {
		return ErrInsufficientBalance
	}
	if v.payNative != nil {
		if err := v.payNative(to, amount); err != nil {
			return err
		}
	}
	v.native -= amount
	v.touch(v.clock())
	return nil
}

// TransferItem withdraws a unique item through its external ledger. Owner-only.
func (v *Vault) TransferItem(caller identity.Identity, ledger ItemLedger, to identity.Identity, item uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	if ledger == nil {
		return ErrNilLedger
	}
	if err := ledger.TransferItem(v.self, to, item); err != nil {
		return err
	}
	v.touch(v.clock())
	return nil
}

// TransferUnits withdraws fungible units through their external ledger. Owner-only.
func (v *Vault) TransferUnits(caller identity.Identity, ledger UnitLedger, to identity.Identity, class, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOwner(caller); err != nil {
		return err
	}
	if ledger == nil {
		return ErrNilLedger
	}
	if err := ledger.TransferUnits(v.self, to, class, amount); err != nil {
		return err
	}
	v.touch(v.clock())
	return nil
}

// NativeBalance returns the custody-held native balance.
func (v *Vault) NativeBalance() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.native
}

func (v *Vault) touchIfOwner(from identity.Identity) {
	if from == v.owner {
		v.touch(v.clock())
	}
}
