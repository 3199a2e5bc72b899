package guardian

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Proof is an ordered sibling path from a leaf to the committed root.
//
// Index packs the per-step orientation bits, LSB-first: bit i set means
// Siblings[i] is the left operand at step i. Orientation is part of the
// proof precisely so that verification never sorts the two operands; a
// sorting verifier would accept an internal node replayed as a fabricated
// leaf.
type Proof struct {
	Index    uint64
	Siblings []Hash
}

// Verify reports whether leaf is committed under root via proof.
//
// The proof is untrusted, caller-chosen input: any malformed length,
// leftover orientation bits, or mismatched final digest yields false, never
// a panic. An empty proof with index 0 verifies exactly when leaf == root
// (a single-guardian tree of depth 0).
func Verify(leaf Hash, proof Proof, root Hash) bool {
	if len(proof.Siblings) > 64 {
		return false
	}
	h := leaf
	idx := proof.Index
	for _, sib := range proof.Siblings {
		if idx&1 == 0 {
			h = hashPair(h, sib)
		} else {
			h = hashPair(sib, h)
		}
		idx >>= 1
	}
	return idx == 0 && h == root
}

// Encode returns the compact text form "<index>:<sib>,<sib>,..." with
// siblings in bare lowercase hex. An empty proof encodes as "<index>:".
func (p Proof) Encode() string {
	parts := make([]string, len(p.Siblings))
	for i, s := range p.Siblings {
		parts[i] = hex.EncodeToString(s[:])
	}
	return strconv.FormatUint(p.Index, 10) + ":" + strings.Join(parts, ",")
}

// DecodeProof parses the form produced by Encode.
func DecodeProof(s string) (Proof, error) {
	idxStr, sibStr, ok := strings.Cut(s, ":")
	if !ok {
		return Proof{}, errors.New("guardian: proof missing index separator")
	}
	idx, err := strconv.ParseUint(idxStr, 10, 64)
	if err != nil {
		return Proof{}, fmt.Errorf("guardian: invalid proof index: %w", err)
	}
	p := Proof{Index: idx}
	if sibStr == "" {
		return p, nil
	}
	for _, part := range strings.Split(sibStr, ",") {
		b, err := hex.DecodeString(part)
		if err != nil {
			return Proof{}, fmt.Errorf("guardian: invalid proof sibling hex: %w", err)
		}
		if len(b) != 32 {
			return Proof{}, fmt.Errorf("guardian: proof sibling must be 32 bytes, got %d", len(b))
		}
		var h Hash
		copy(h[:], b)
		p.Siblings = append(p.Siblings, h)
	}
	return p, nil
}
