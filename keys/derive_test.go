package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

func TestDerivePurposeSeedDeterministic(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DerivePurposeSeed(root, "journal")
	if err != nil {
		t.Fatalf("DerivePurposeSeed: %v", err)
	}
	b, err := DerivePurposeSeed(root, "journal")
	if err != nil {
		t.Fatalf("DerivePurposeSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DerivePurposeSeed(root, "recovery")
	if err != nil {
		t.Fatalf("DerivePurposeSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different purposes to derive different seeds")
	}
}

func TestIssuerKeyFromSeedFormat(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	issuerKey := IssuerKeyFromSeed(seed)
	if !strings.HasPrefix(issuerKey, "ed25519:") {
		t.Fatalf("expected ed25519 prefix, got %q", issuerKey)
	}
	b64 := strings.TrimPrefix(issuerKey, "ed25519:")
	pubBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("expected valid base64: %v", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		t.Fatalf("expected %d pubkey bytes, got %d", ed25519.PublicKeySize, len(pubBytes))
	}
}

func TestIdentityFromSeedMatchesIssuerKey(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	fromKey, err := identity.FromIssuerKey(IssuerKeyFromSeed(seed))
	if err != nil {
		t.Fatalf("FromIssuerKey: %v", err)
	}
	if got := IdentityFromSeed(seed); got != fromKey {
		t.Fatalf("identity mismatch: %s vs %s", got, fromKey)
	}
}
