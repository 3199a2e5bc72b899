// Package guardian implements the guardian directory commitment: leaf
// hashing over (identity, delay) declarations, orientation-sensitive Merkle
// proof verification against a 32-byte root, and the off-core tree builder
// used to assemble proofs.
//
// The vault core only ever stores the root. The full declaration set is
// retained off-core (see the set file format in setfile.go) by whoever
// constructs proofs.
package guardian

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// Hash is a 32-byte Keccak-256 digest.
type Hash [32]byte

// ZeroHash is the all-zero digest. A vault with a zero guardian root has no
// provable guardians.
var ZeroHash Hash

// Declaration binds a guardian identity to its recovery delay.
//
// Delays are whole seconds; finer precision is not representable in the leaf
// encoding and is rejected by the set file parser.
type Declaration struct {
	Identity identity.Identity
	Delay    time.Duration
}

// Leaf returns the committed leaf hash for a declaration:
// Keccak-256 over the 20 identity bytes followed by the delay in whole
// seconds as a big-endian uint64.
func Leaf(id identity.Identity, delay time.Duration) Hash {
	var buf [identity.Size + 8]byte
	copy(buf[:identity.Size], id[:])
	binary.BigEndian.PutUint64(buf[identity.Size:], uint64(delay/time.Second))
	return keccak(buf[:])
}

// Leaf returns the declaration's committed leaf hash.
func (d Declaration) Leaf() Hash {
	return Leaf(d.Identity, d.Delay)
}

// hashPair combines two nodes. The operand order is significant: callers
// must never sort the operands, or an internal node becomes replayable as a
// forged leaf (see Verify).
func hashPair(left, right Hash) Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return keccak(buf[:])
}

func keccak(b []byte) Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ParseHash parses the canonical text form: "0x" + 64 lowercase hex digits.
func ParseHash(s string) (Hash, error) {
	if !strings.HasPrefix(s, "0x") {
		return ZeroHash, errors.New("guardian: missing 0x prefix")
	}
	body := s[2:]
	if len(body) != 64 {
		return ZeroHash, fmt.Errorf("guardian: expected 64 hex digits, got %d", len(body))
	}
	if body != strings.ToLower(body) {
		return ZeroHash, errors.New("guardian: uppercase hex not canonical")
	}
	b, err := hex.DecodeString(body)
	if err != nil {
		return ZeroHash, fmt.Errorf("guardian: invalid hex: %w", err)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// String returns the canonical text form.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}
