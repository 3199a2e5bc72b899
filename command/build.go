package command

import (
	"crypto/ed25519"
	"encoding/base64"
	"strconv"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// Draft carries the unsigned content of a command envelope.
type Draft struct {
	Vault identity.Identity
	Nonce uint64
	Op    map[string]string // must include the "Op" key
}

func (d Draft) document(crypto map[string]string) Document {
	op := make(map[string]string, len(d.Op))
	for k, v := range d.Op {
		op[k] = v
	}
	return Document{
		Meta: map[string]string{
			"Version": "1",
			"Vault":   d.Vault.String(),
			"Nonce":   strconv.FormatUint(d.Nonce, 10),
		},
		Op:     op,
		Crypto: crypto,
	}
}

// draftSignedScope renders the draft with placeholder crypto pairs and
// extracts the signature scope. The scope never covers the CRYPTO section, so
// the placeholder values do not leak into the signed bytes.
func (d Draft) draftSignedScope() ([]byte, error) {
	canonical, err := Render(d.document(map[string]string{"Signature": "-"}))
	if err != nil {
		return nil, err
	}
	return signedScopeFromCanonical(canonical)
}

func (d Draft) seal(issuerKey, sigAlg, hashAlg, signature string) (*Command, error) {
	canonical, err := Render(d.document(map[string]string{
		"Issuer-Key":    issuerKey,
		"Signature-Alg": sigAlg,
		"Hash-Alg":      hashAlg,
		"Signature":     signature,
	}))
	if err != nil {
		return nil, err
	}
	return Parse(canonical)
}

// SignEd25519 renders the draft and signs it with an Ed25519 private key.
// hashAlg must be one of: sha256, sha512, sha3-256.
func SignEd25519(d Draft, hashAlg string, priv ed25519.PrivateKey) (*Command, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, newError(KindCrypto, "CMD-CRYPTO-501", "invalid ed25519 private key length")
	}
	scope, err := d.draftSignedScope()
	if err != nil {
		return nil, err
	}
	digest, err := digestFor(hashAlg, scope)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(priv, digest)
	pub := priv.Public().(ed25519.PublicKey)
	issuerKey := "ed25519:" + base64.StdEncoding.EncodeToString(pub)
	return d.seal(issuerKey, "ed25519", hashAlg, base64.StdEncoding.EncodeToString(sig))
}

// SignDilithium3 renders the draft and signs it with a Dilithium3 private key.
// hashAlg must be one of: sha256, sha512, sha3-256.
func SignDilithium3(d Draft, hashAlg string, priv *mode3.PrivateKey) (*Command, error) {
	if priv == nil {
		return nil, newError(KindCrypto, "CMD-CRYPTO-502", "missing private key")
	}
	scope, err := d.draftSignedScope()
	if err != nil {
		return nil, err
	}
	digest, err := digestFor(hashAlg, scope)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, digest, sig)
	pubBytes, err := priv.Public().(*mode3.PublicKey).MarshalBinary()
	if err != nil {
		return nil, wrapError(KindCrypto, "CMD-CRYPTO-503", "cannot encode public key", err)
	}
	issuerKey := "dilithium3:" + base64.StdEncoding.EncodeToString(pubBytes)
	return d.seal(issuerKey, "dilithium3", hashAlg, base64.StdEncoding.EncodeToString(sig))
}
