// Package store provides content-addressable storage for the vault's
// artifacts: command envelopes, journal records, and guardian set files. All
// of these are canonical byte documents, so a CIDv1 (raw + sha2-256) over the
// bytes is a stable, transport-independent name for each.
package store

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers are responsible for supplying canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
