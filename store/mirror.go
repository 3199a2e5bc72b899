package store

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/Philogy/Social-Recovery-Asset-Vault/cidutil"
)

// Named associates a CAS with a stable backend name, used for multi-backend
// orchestration where callers need per-backend metadata.
type Named struct {
	Name string
	CAS  CAS
}

// Mirror writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require all
// returned CIDs to match (otherwise ErrCIDMismatch is returned). Use PutAll
// when you need the per-backend CID mapping.
type Mirror struct {
	Backends []Named
}

var _ CAS = (*Mirror)(nil)

// PutAll writes the same bytes to all backends.
//
// It returns:
// - the canonical CID (computed from bytes)
// - a map of backend name -> returned CID
//
// If any backend returns a different CID, ErrCIDMismatch is returned.
func (m Mirror) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(m.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("store: Mirror has no backends")
	}

	out := make(map[string]cid.Cid, len(m.Backends))
	for _, b := range m.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("store: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(bytes)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (m Mirror) Put(bytes []byte) (cid.Cid, error) {
	id, _, err := m.PutAll(bytes)
	return id, err
}

func (m Mirror) Get(id cid.Cid) ([]byte, error) {
	for _, b := range m.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m Mirror) Has(id cid.Cid) bool {
	for _, b := range m.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}

// Tiered provides deterministic, ordered fallback across multiple backends.
//
// Hydration order is the slice order; callers MUST supply a fixed order.
// This avoids map-iteration nondeterminism and makes the retrieval strategy
// explicit. Put writes only to the first backend.
type Tiered struct {
	Backends []CAS
}

var _ CAS = (*Tiered)(nil)

func (t Tiered) Put(bytes []byte) (cid.Cid, error) {
	if len(t.Backends) == 0 {
		return cid.Undef, fmt.Errorf("store: Tiered has no backends")
	}
	return t.Backends[0].Put(bytes)
}

func (t Tiered) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range t.Backends {
		b, err := cas.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (t Tiered) Has(id cid.Cid) bool {
	for _, cas := range t.Backends {
		if cas.Has(id) {
			return true
		}
	}
	return false
}
