package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// kdfLabel domain-separates purpose-seed derivation from any other use of
// the root seed. Changing it changes every derived key.
const kdfLabel = "vault-keys-v1"

// IssuerKeyFromSeed returns the issuer key string for an Ed25519 seed:
// "ed25519:" + base64(pubkey). This is the form carried in command and
// journal CRYPTO sections.
func IssuerKeyFromSeed(seed []byte) string {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub)
}

// PrivateKeyFromSeed expands an Ed25519 seed into its private key.
func PrivateKeyFromSeed(seed []byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(seed)
}

// IdentityFromSeed returns the vault identity controlled by an Ed25519 seed.
func IdentityFromSeed(seed []byte) identity.Identity {
	priv := ed25519.NewKeyFromSeed(seed)
	return identity.FromPublicKeyBytes(priv.Public().(ed25519.PublicKey))
}

// DerivePurposeSeed deterministically derives a purpose-specific Ed25519
// seed from a root seed. Distinct purposes yield independent keys; the root
// seed is never recoverable from a purpose seed.
func DerivePurposeSeed(rootSeed []byte, purpose string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckPurpose(purpose); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(kdfLabel))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("purpose:"))
	_, _ = h.Write([]byte(purpose))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}
