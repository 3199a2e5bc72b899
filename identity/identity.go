// Package identity defines the vault's account identity type.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Size is the identity length in bytes.
const Size = 20

// Identity is a 20-byte account address.
//
// The zero value is the null identity; it is never a valid owner after
// initialization and never a valid guardian.
type Identity [Size]byte

// Zero is the null identity.
var Zero Identity

// FromPublicKeyBytes derives an identity from raw public key material.
//
// The identity is the trailing 20 bytes of SHA3-256 over the key bytes, so
// identities are stable across key encodings and uniform across signature
// schemes (ed25519 and dilithium3 keys both map into the same space).
func FromPublicKeyBytes(pub []byte) Identity {
	sum := sha3.Sum256(pub)
	var id Identity
	copy(id[:], sum[32-Size:])
	return id
}

// FromIssuerKey derives the identity bound to an issuer key string.
// Supported encodings:
// - ed25519:<base64>
// - dilithium3:<base64>
func FromIssuerKey(issuer string) (Identity, error) {
	alg, enc, ok := strings.Cut(issuer, ":")
	if !ok {
		return Zero, errors.New("identity: invalid issuer key encoding")
	}
	pub, err := decodeBase64(enc)
	if err != nil {
		return Zero, fmt.Errorf("identity: invalid issuer key base64: %w", err)
	}
	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return Zero, errors.New("identity: invalid ed25519 public key length")
		}
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return Zero, fmt.Errorf("identity: invalid dilithium3 public key: %w", err)
		}
	default:
		return Zero, fmt.Errorf("identity: unsupported issuer key scheme %q", alg)
	}
	return FromPublicKeyBytes(pub), nil
}

// Parse parses the canonical text form: "0x" followed by 40 lowercase hex digits.
func Parse(s string) (Identity, error) {
	if !strings.HasPrefix(s, "0x") {
		return Zero, errors.New("identity: missing 0x prefix")
	}
	body := s[2:]
	if len(body) != Size*2 {
		return Zero, fmt.Errorf("identity: expected %d hex digits, got %d", Size*2, len(body))
	}
	if body != strings.ToLower(body) {
		return Zero, errors.New("identity: uppercase hex not canonical")
	}
	b, err := hex.DecodeString(body)
	if err != nil {
		return Zero, fmt.Errorf("identity: invalid hex: %w", err)
	}
	var id Identity
	copy(id[:], b)
	return id, nil
}

// String returns the canonical text form.
func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether id is the null identity.
func (id Identity) IsZero() bool {
	return id == Zero
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
