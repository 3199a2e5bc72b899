// Package api defines the JSON boundary types for the vault RPC service and
// the conversions from core vault types.
//
// These are DTOs: they carry canonical text encodings (0x-hex identities and
// roots, RFC 3339 times, Go duration text) rather than core binary types, so
// clients in any language can consume them.
package api

import (
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/vault"
)

// EventFromVault converts a core event to its JSON form.
func EventFromVault(e vault.Event) Event {
	out := Event{
		Seq:  e.Seq,
		Time: e.Time.UTC().Format(time.RFC3339Nano),
		Type: string(e.Type),
	}
	switch e.Type {
	case vault.EventOwnershipTransferred:
		out.PrevOwner = e.PrevOwner.String()
		out.NewOwner = e.NewOwner.String()
	case vault.EventGuardianRootChanged:
		out.Root = e.Root.String()
	case vault.EventRecoveryExecuted:
		out.Guardian = e.Guardian.String()
		out.NewOwner = e.NewOwner.String()
		out.Delay = e.Delay.String()
		out.Proof = e.Proof.Encode()
	}
	return out
}

// EventsFromVault converts a slice of core events.
func EventsFromVault(events []vault.Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = EventFromVault(e)
	}
	return out
}

// StatusOf snapshots a vault's observable state.
func StatusOf(v *vault.Vault) Status {
	s := Status{
		Vault:         v.Self().String(),
		Initialized:   v.Initialized(),
		Owner:         v.Owner().String(),
		GuardianRoot:  v.GuardianRoot().String(),
		NativeBalance: v.NativeBalance(),
		LastSeq:       v.LastSeq(),
	}
	if last := v.LastActivity(); !last.IsZero() {
		s.LastActivity = last.UTC().Format(time.RFC3339Nano)
	}
	return s
}
