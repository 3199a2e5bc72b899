package journal

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/Philogy/Social-Recovery-Asset-Vault/vault"
)

const (
	Preamble  = "-----BEGIN VAULT EVENT-----"
	Postamble = "-----END VAULT EVENT-----"
)

// RenderOptions configures record rendering.
type RenderOptions struct {
	JournalID string

	// Optional record signing. If PrivateKey is set, the CRYPTO section is
	// populated and Signature is computed over the record bytes excluding the
	// Signature: line.
	JournalKey string
	PrivateKey ed25519.PrivateKey
}

// RenderRecord produces a canonical record for one vault event, chained onto
// prevLink. It returns the record bytes and the new chain link.
//
// The chain link commits to the event scope only (preamble through the EVENT
// section), so re-signing a journal does not change its links.
func RenderRecord(e vault.Event, prevLink Link, opts RenderOptions) ([]byte, Link, error) {
	journalID := opts.JournalID
	if journalID == "" {
		journalID = "vault-journal"
	}

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")

	// META
	sb.WriteString("META\n")
	metaLines := []string{
		"Journal-ID: " + journalID,
		"Spec: vault-journal-1",
		"Version: 1",
	}
	sort.Strings(metaLines)
	for _, l := range metaLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// EVENT
	sb.WriteString("EVENT\n")
	eventLines, err := eventLines(e)
	if err != nil {
		return nil, Link{}, err
	}
	for _, l := range eventLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}

	// The event scope ends here; everything below is derived from it.
	scope := sb.String()
	val := blake3.Sum256([]byte(scope))
	link := NextLink(prevLink, val)

	sb.WriteString("\n")

	// CHAIN
	sb.WriteString("CHAIN\n")
	chainLines := []string{
		"Link: " + link.String(),
		"Prev-Link: " + prevLink.String(),
	}
	sort.Strings(chainLines)
	for _, l := range chainLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// CRYPTO (empty when unsigned)
	sb.WriteString("CRYPTO\n")
	signing := len(opts.PrivateKey) > 0
	if signing {
		if opts.JournalKey == "" {
			return nil, Link{}, errors.New("journal: signing requires JournalKey")
		}
		cryptoLines := []string{
			"Hash-Alg: sha256",
			"Journal-Key: " + opts.JournalKey,
			"Signature-Alg: ed25519",
			"Signature: 0",
		}
		sort.Strings(cryptoLines)
		for _, l := range cryptoLines {
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	sb.WriteString(Postamble)
	sb.WriteString("\n")
	out := []byte(sb.String())

	if signing {
		sig, err := signRecord(out, opts.PrivateKey)
		if err != nil {
			return nil, Link{}, err
		}
		out = []byte(strings.Replace(string(out), "Signature: 0", "Signature: "+sig, 1))
	}

	return out, link, nil
}

func eventLines(e vault.Event) ([]string, error) {
	if e.Seq == 0 {
		return nil, errors.New("journal: event has no sequence number")
	}
	lines := []string{
		"Seq: " + strconv.FormatUint(e.Seq, 10),
		"Time: " + e.Time.UTC().Format(time.RFC3339),
		"Type: " + string(e.Type),
	}
	switch e.Type {
	case vault.EventLiveness:
		// No operands.
	case vault.EventGuardianRootChanged:
		lines = append(lines, "Root: "+e.Root.String())
	case vault.EventOwnershipTransferred:
		lines = append(lines,
			"New-Owner: "+e.NewOwner.String(),
			"Prev-Owner: "+e.PrevOwner.String(),
		)
	case vault.EventRecoveryExecuted:
		lines = append(lines,
			"Delay: "+e.Delay.String(),
			"Guardian: "+e.Guardian.String(),
			"New-Owner: "+e.NewOwner.String(),
			"Proof: "+e.Proof.Encode(),
		)
	default:
		return nil, errors.New("journal: unknown event type " + string(e.Type))
	}
	sort.Strings(lines)
	return lines, nil
}

func signRecord(recordBytes []byte, privateKey ed25519.PrivateKey) (string, error) {
	scope, err := recordSignatureScope(recordBytes)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(scope)
	sig := ed25519.Sign(privateKey, digest[:])
	return base64.StdEncoding.EncodeToString(sig), nil
}

func recordSignatureScope(recordBytes []byte) ([]byte, error) {
	lines := strings.Split(string(recordBytes), "\n")
	var out []string
	removed := false
	for _, l := range lines {
		if strings.HasPrefix(l, "Signature: ") {
			if removed {
				return nil, errors.New("journal: multiple Signature lines")
			}
			removed = true
			continue
		}
		out = append(out, l)
	}
	if !removed {
		return nil, errors.New("journal: missing Signature line")
	}
	return []byte(strings.Join(out, "\n")), nil
}
