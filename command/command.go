// Package command implements parsing and canonicalization for the signed
// vault command envelope: an armored text document whose OP section names one
// vault operation and whose CRYPTO section binds the issuer's signature over
// the canonical bytes of everything preceding it.
package command

import (
	"bytes"

	"github.com/Philogy/Social-Recovery-Asset-Vault/cidutil"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// SectionOrder defines the canonical order of command sections.
var SectionOrder = []string{"META", "OP", "CRYPTO"}

const (
	Preamble  = "-----BEGIN VAULT COMMAND-----"
	Postamble = "-----END VAULT COMMAND-----"
)

// Command represents a parsed command envelope.
type Command struct {
	Sections map[string]Section
	Raw      []byte // Canonical bytes
	Signed   []byte // Bytes covered by signature (BEGIN..end of OP, inclusive)
}

type Section struct {
	Name  string
	Pairs map[string]string // Key-value pairs, sorted lexicographically
}

// Parse parses a command envelope and enforces the canonical serialization
// rules. Non-canonical inputs are rejected.
func Parse(data []byte) (*Command, error) {
	if err := applyParseRules(data, parseRulesV1()); err != nil {
		return nil, err
	}

	parsed, err := parseSectionsV1(data)
	if err != nil {
		return nil, err
	}
	sections := parsed.sections

	// Enforce full canonical byte identity by re-rendering and comparing.
	// This makes Parse() strictly reject any non-canonical inputs.
	doc := Document{
		Meta:   sections["META"].Pairs,
		Op:     sections["OP"].Pairs,
		Crypto: sections["CRYPTO"].Pairs,
	}
	canonical, rerr := Render(doc)
	if rerr != nil {
		return nil, rerr
	}
	if !bytes.Equal(data, canonical) {
		return nil, newError(KindCanonical, "CMD-CANON-004", "non-canonical command")
	}

	signed, err := signedScopeFromCanonical(canonical)
	if err != nil {
		return nil, err
	}
	return &Command{Sections: sections, Raw: canonical, Signed: signed}, nil
}

// signedScopeFromCanonical returns the bytes covered by the signature: the
// BEGIN line through the end of the OP section, including the blank line
// separating it from CRYPTO.
func signedScopeFromCanonical(canonical []byte) ([]byte, error) {
	marker := []byte("\nCRYPTO\n")
	idx := bytes.Index(canonical, marker)
	if idx < 0 {
		return nil, newError(KindInternal, "CMD-INTERNAL-003", "cannot determine signature scope")
	}
	return canonical[:idx+1], nil
}

// CID returns a deterministic content identifier for the canonical command
// bytes: an IPFS-compatible CIDv1 (raw + sha2-256).
func (c *Command) CID() string {
	return cidutil.CIDv1RawSHA256(c.Raw)
}

// Version returns the META Version value.
func (c *Command) Version() string {
	return c.pair("META", "Version")
}

// VaultID returns the addressed vault's identity from META.
func (c *Command) VaultID() (identity.Identity, error) {
	v := c.pair("META", "Vault")
	if v == "" {
		return identity.Zero, newError(KindValidation, "CMD-VAL-103", "missing META Vault")
	}
	id, err := identity.Parse(v)
	if err != nil {
		return identity.Zero, wrapError(KindValidation, "CMD-VAL-104", "invalid META Vault", err)
	}
	return id, nil
}

// Nonce returns the raw META Nonce value.
func (c *Command) Nonce() string {
	return c.pair("META", "Nonce")
}

// Op returns the OP section's operation name.
func (c *Command) Op() string {
	return c.pair("OP", "Op")
}

// IssuerKey returns the CRYPTO Issuer-Key value.
func (c *Command) IssuerKey() string {
	return c.pair("CRYPTO", "Issuer-Key")
}

// Issuer derives the caller identity from the Issuer-Key. The derived
// identity is what the vault authorizes against, so a command is only as
// privileged as the key that signed it.
func (c *Command) Issuer() (identity.Identity, error) {
	key := c.IssuerKey()
	if key == "" {
		return identity.Zero, newError(KindCrypto, "CMD-CRYPTO-103", "missing Issuer-Key")
	}
	id, err := identity.FromIssuerKey(key)
	if err != nil {
		return identity.Zero, wrapError(KindCrypto, "CMD-CRYPTO-111", "invalid Issuer-Key encoding", err)
	}
	return id, nil
}

func (c *Command) pair(section, key string) string {
	if sec, ok := c.Sections[section]; ok {
		return sec.Pairs[key]
	}
	return ""
}

func isSectionHeader(line string) bool {
	for _, s := range SectionOrder {
		if line == s {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
