package command

import (
	"bytes"
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

func testKeypair(t *testing.T, seed byte) (ed25519.PrivateKey, identity.Identity) {
	t.Helper()
	seedBytes := bytes.Repeat([]byte{seed}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seedBytes)
	id := identity.FromPublicKeyBytes(priv.Public().(ed25519.PublicKey))
	return priv, id
}

func testVaultID() identity.Identity {
	var id identity.Identity
	for i := range id {
		id[i] = 0x77
	}
	return id
}

func signedPing(t *testing.T, nonce uint64, priv ed25519.PrivateKey) *Command {
	t.Helper()
	c, err := SignEd25519(Draft{
		Vault: testVaultID(),
		Nonce: nonce,
		Op:    map[string]string{"Op": OpPing},
	}, "sha256", priv)
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	return c
}

func TestBuildParseVerifyRoundTrip(t *testing.T) {
	priv, issuer := testKeypair(t, 1)
	c := signedPing(t, 7, priv)

	reparsed, err := Parse(c.Raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(reparsed.Raw, c.Raw) {
		t.Fatal("re-parse must preserve canonical bytes")
	}
	if err := reparsed.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := ValidateEnvelope(reparsed); err != nil {
		t.Fatalf("ValidateEnvelope: %v", err)
	}
	got, err := reparsed.Issuer()
	if err != nil {
		t.Fatalf("Issuer: %v", err)
	}
	if got != issuer {
		t.Fatalf("issuer identity: %s", got)
	}
	vid, err := reparsed.VaultID()
	if err != nil {
		t.Fatalf("VaultID: %v", err)
	}
	if vid != testVaultID() {
		t.Fatalf("vault id: %s", vid)
	}
	if n, err := reparsed.NonceValue(); err != nil || n != 7 {
		t.Fatalf("nonce: %d err %v", n, err)
	}
}

func TestParseRejectsNonCanonical(t *testing.T) {
	priv, _ := testKeypair(t, 2)
	canonical := string(signedPing(t, 1, priv).Raw)

	cases := []struct {
		name  string
		input string
	}{
		{"trailing newline", canonical + "\n"},
		{"crlf", strings.ReplaceAll(canonical, "\n", "\r\n")},
		{"bom", "\xEF\xBB\xBF" + canonical},
		{"trailing space", strings.Replace(canonical, "Op: ping", "Op: ping ", 1)},
		{"missing preamble", strings.TrimPrefix(canonical, Preamble+"\n")},
		{"missing postamble", strings.TrimSuffix(canonical, "\n"+Postamble)},
		{"lowercase section", strings.Replace(canonical, "\nOP\n", "\nop\n", 1)},
		{"missing blank line", strings.Replace(canonical, "\n\nOP\n", "\nOP\n", 1)},
		{"double blank line", strings.Replace(canonical, "\n\nOP\n", "\n\n\nOP\n", 1)},
		{"unsorted keys", strings.Replace(canonical,
			"Nonce: 1\nVault:", "Vault-Z: x\nNonce: 1\nVault:", 1)},
		{"bad kv separator", strings.Replace(canonical, "Op: ping", "Op:ping", 1)},
		{"empty value", strings.Replace(canonical, "Op: ping", "Op: ", 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.input)); err == nil {
				t.Fatal("expected parse failure")
			}
		})
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	priv, _ := testKeypair(t, 3)
	c := signedPing(t, 5, priv)

	// Flip the nonce. The document stays canonical, so Parse accepts it, but
	// the signature no longer covers the bytes.
	tampered := bytes.Replace(c.Raw, []byte("Nonce: 5"), []byte("Nonce: 6"), 1)
	parsed, err := Parse(tampered)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = parsed.Verify()
	if err == nil {
		t.Fatal("expected signature failure")
	}
	if !IsKind(err, KindCrypto) || RuleID(err) != "CMD-CRYPTO-401" {
		t.Fatalf("unexpected error: %v (rule %s)", err, RuleID(err))
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	privA, _ := testKeypair(t, 4)
	privB, _ := testKeypair(t, 5)
	a := signedPing(t, 1, privA)
	b := signedPing(t, 1, privB)

	// Graft A's signature onto B's envelope.
	sigA := a.Signature()
	sigB := b.Signature()
	grafted := bytes.Replace(b.Raw, []byte("Signature: "+sigB), []byte("Signature: "+sigA), 1)
	parsed, err := Parse(grafted)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := parsed.Verify(); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestSignatureScopeExcludesCrypto(t *testing.T) {
	priv, _ := testKeypair(t, 6)
	c := signedPing(t, 9, priv)
	if !bytes.HasPrefix(c.Raw, c.Signed) {
		t.Fatal("signed scope must be a prefix of the canonical bytes")
	}
	if bytes.Contains(c.Signed, []byte("CRYPTO")) {
		t.Fatal("signed scope must end before the CRYPTO section")
	}
	if !bytes.Contains(c.Signed, []byte("Op: ping")) {
		t.Fatal("signed scope must cover the OP section")
	}
}

func TestCIDStableAndContentBound(t *testing.T) {
	priv, _ := testKeypair(t, 7)
	a := signedPing(t, 1, priv)
	b := signedPing(t, 1, priv)
	if a.CID() == "" || a.CID() != b.CID() {
		t.Fatalf("identical envelopes must share a CID: %s vs %s", a.CID(), b.CID())
	}
	c := signedPing(t, 2, priv)
	if a.CID() == c.CID() {
		t.Fatal("distinct envelopes must not share a CID")
	}
}

func TestNormalizeToleratesSloppyBytes(t *testing.T) {
	priv, _ := testKeypair(t, 8)
	canonical := signedPing(t, 3, priv).Raw

	sloppy := "\xEF\xBB\xBF" + strings.ReplaceAll(string(canonical), "\n", "\r\n") + "\n\n"
	normalized, err := Normalize([]byte(sloppy))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !bytes.Equal(normalized, canonical) {
		t.Fatal("normalization must recover the canonical bytes")
	}
	// The signature survives normalization.
	parsed, err := Parse(normalized)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := parsed.Verify(); err != nil {
		t.Fatalf("Verify after normalize: %v", err)
	}
}

func TestValidateEnvelopeRequirements(t *testing.T) {
	priv, _ := testKeypair(t, 9)
	c := signedPing(t, 1, priv)

	mutate := func(old, new string) *Command {
		t.Helper()
		raw := bytes.Replace(c.Raw, []byte(old), []byte(new), 1)
		parsed, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse after mutation %q: %v", new, err)
		}
		return parsed
	}

	if err := ValidateEnvelope(mutate("Version: 1", "Version: 2")); err == nil {
		t.Fatal("unsupported version must fail")
	}
	if err := ValidateEnvelope(mutate("Nonce: 1", "Nonce: x1")); err == nil {
		t.Fatal("non-decimal nonce must fail")
	}
	if err := ValidateEnvelope(mutate("Vault: "+testVaultID().String(), "Vault: nonsense")); err == nil {
		t.Fatal("unparseable vault identity must fail")
	}
}

func TestValidateOpUnknownOperation(t *testing.T) {
	priv, _ := testKeypair(t, 10)
	c, err := SignEd25519(Draft{
		Vault: testVaultID(),
		Nonce: 1,
		Op:    map[string]string{"Op": "defrobnicate"},
	}, "sha256", priv)
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	if err := ValidateOp(c, Strict); err == nil {
		t.Fatal("strict mode must reject unknown operations")
	}
	if err := ValidateOp(c, Permissive); err != nil {
		t.Fatalf("permissive mode must accept unknown operations: %v", err)
	}
}

func TestValidateOpRequiredKeys(t *testing.T) {
	priv, _ := testKeypair(t, 11)
	cases := []struct {
		name string
		op   map[string]string
	}{
		{"recover missing proof", map[string]string{
			"Op":        OpRecover,
			"Guardian":  testVaultID().String(),
			"Delay":     "72h",
			"New-Owner": testVaultID().String(),
		}},
		{"transfer-native missing amount", map[string]string{
			"Op": OpTransferNative,
			"To": testVaultID().String(),
		}},
		{"transfer-units missing class", map[string]string{
			"Op":     OpTransferUnits,
			"Ledger": "units-main",
			"To":     testVaultID().String(),
			"Amount": "5",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := SignEd25519(Draft{Vault: testVaultID(), Nonce: 1, Op: tc.op}, "sha256", priv)
			if err != nil {
				t.Fatalf("SignEd25519: %v", err)
			}
			err = ValidateOp(c, Strict)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !IsKind(err, KindValidation) {
				t.Fatalf("expected validation kind, got %v", err)
			}
		})
	}
}

func TestDecodeTypedOps(t *testing.T) {
	priv, _ := testKeypair(t, 12)
	owner := testVaultID()

	c, err := SignEd25519(Draft{
		Vault: owner,
		Nonce: 1,
		Op: map[string]string{
			"Op":        OpRecover,
			"Guardian":  "0x0101010101010101010101010101010101010101",
			"Delay":     "72h",
			"Proof":     "1:" + strings.Repeat("ab", 32),
			"New-Owner": "0x0202020202020202020202020202020202020202",
		},
	}, "sha256", priv)
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	op, err := Decode(c)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rec, ok := op.(RecoverOp)
	if !ok {
		t.Fatalf("decoded type: %T", op)
	}
	if rec.Delay != 72*time.Hour {
		t.Fatalf("delay: %v", rec.Delay)
	}
	if rec.Proof.Index != 1 || len(rec.Proof.Siblings) != 1 {
		t.Fatalf("proof: %+v", rec.Proof)
	}

	c, err = SignEd25519(Draft{
		Vault: owner,
		Nonce: 2,
		Op: map[string]string{
			"Op":     OpTransferUnits,
			"Ledger": "units-main",
			"To":     "0x0303030303030303030303030303030303030303",
			"Class":  "9",
			"Amount": "250",
		},
	}, "sha256", priv)
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	op, err = Decode(c)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	units, ok := op.(TransferUnitsOp)
	if !ok {
		t.Fatalf("decoded type: %T", op)
	}
	if units.Ledger != "units-main" || units.Class != 9 || units.Amount != 250 {
		t.Fatalf("units op: %+v", units)
	}
}

func TestDecodeRejectsMalformedOperands(t *testing.T) {
	priv, _ := testKeypair(t, 13)
	cases := []struct {
		name string
		op   map[string]string
	}{
		{"bad new owner", map[string]string{
			"Op":        OpTransferOwnership,
			"New-Owner": "0xNOTHEX",
		}},
		{"bad root", map[string]string{
			"Op":   OpSetGuardianRoot,
			"Root": "0x1234",
		}},
		{"bad delay", map[string]string{
			"Op":        OpRecover,
			"Guardian":  "0x0101010101010101010101010101010101010101",
			"Delay":     "soon",
			"Proof":     "0:",
			"New-Owner": "0x0202020202020202020202020202020202020202",
		}},
		{"bad amount", map[string]string{
			"Op":     OpTransferNative,
			"To":     "0x0303030303030303030303030303030303030303",
			"Amount": "-4",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := SignEd25519(Draft{Vault: testVaultID(), Nonce: 1, Op: tc.op}, "sha256", priv)
			if err != nil {
				t.Fatalf("SignEd25519: %v", err)
			}
			if _, err := Decode(c); err == nil {
				t.Fatal("expected decode failure")
			}
		})
	}
}
