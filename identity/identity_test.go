package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	id, err := Parse("0x00112233445566778899aabbccddeeff00112233")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := id.String(); got != "0x00112233445566778899aabbccddeeff00112233" {
		t.Fatalf("String: %s", got)
	}
}

func TestParseRejectsNonCanonical(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"missing prefix", "00112233445566778899aabbccddeeff00112233"},
		{"short", "0x0011"},
		{"long", "0x00112233445566778899aabbccddeeff0011223344"},
		{"uppercase", "0x00112233445566778899AABBCCDDEEFF00112233"},
		{"non-hex", "0x00112233445566778899aabbccddeeff0011223g"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.in); err == nil {
				t.Fatalf("expected error for %q", tc.in)
			}
		})
	}
}

func TestZeroIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatal("Zero must report IsZero")
	}
	id, _ := Parse("0x0000000000000000000000000000000000000001")
	if id.IsZero() {
		t.Fatal("nonzero identity must not report IsZero")
	}
}

func TestFromIssuerKeyEd25519(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	issuer := "ed25519:" + base64.StdEncoding.EncodeToString(pub)

	id, err := FromIssuerKey(issuer)
	if err != nil {
		t.Fatalf("FromIssuerKey: %v", err)
	}
	if id.IsZero() {
		t.Fatal("derived identity must not be zero")
	}
	if id != FromPublicKeyBytes(pub) {
		t.Fatal("issuer key derivation must match raw key derivation")
	}

	// Derivation is deterministic.
	again, err := FromIssuerKey(issuer)
	if err != nil {
		t.Fatalf("FromIssuerKey: %v", err)
	}
	if again != id {
		t.Fatal("derivation not deterministic")
	}
}

func TestFromIssuerKeyRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"ed25519",
		"ed25519:!!!",
		"ed25519:" + base64.StdEncoding.EncodeToString([]byte("short")),
		"rsa:" + base64.StdEncoding.EncodeToString(make([]byte, 32)),
	}
	for _, in := range cases {
		if _, err := FromIssuerKey(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFromPublicKeyBytesDistinctKeys(t *testing.T) {
	a := FromPublicKeyBytes([]byte(strings.Repeat("a", 32)))
	b := FromPublicKeyBytes([]byte(strings.Repeat("b", 32)))
	if a == b {
		t.Fatal("distinct keys must not collide")
	}
}
