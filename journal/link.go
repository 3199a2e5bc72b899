package journal

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// Link is a hash-chain link over the journal's record sequence. Each record's
// link commits to every record before it, so two journals that agree on a
// link agree on the entire prefix.
type Link [32]byte

// EmptyLink is the chain head before any record has been appended.
func EmptyLink() Link {
	return blake3.Sum256(nil)
}

// NextLink extends prev with the digest of one record's event scope.
func NextLink(prev Link, val [32]byte) Link {
	h := blake3.New()
	h.Write(prev[:])
	h.Write(val[:])
	var out Link
	copy(out[:], h.Sum(nil))
	return out
}

// ParseLink parses 64 lowercase hex digits.
func ParseLink(s string) (Link, error) {
	if len(s) != 64 {
		return Link{}, fmt.Errorf("journal: link must be 64 hex digits, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Link{}, fmt.Errorf("journal: invalid link hex: %w", err)
	}
	var l Link
	copy(l[:], b)
	return l, nil
}

// String returns the bare lowercase hex form.
func (l Link) String() string {
	return hex.EncodeToString(l[:])
}

var errLinkMismatch = errors.New("journal: chain link mismatch")
