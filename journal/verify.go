package journal

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// VerifyRecord checks a single record's internal consistency: the chain link
// must commit to the record's own event scope, and a populated CRYPTO section
// must carry a valid signature. It returns the record's links on success.
func VerifyRecord(data []byte) (prev, curr Link, err error) {
	rec, err := ParseRecord(data)
	if err != nil {
		return Link{}, Link{}, err
	}
	prev, curr, err = rec.Links()
	if err != nil {
		return Link{}, Link{}, err
	}

	scope, err := eventScope(data)
	if err != nil {
		return Link{}, Link{}, err
	}
	val := blake3.Sum256(scope)
	if NextLink(prev, val) != curr {
		return Link{}, Link{}, errLinkMismatch
	}

	if rec.Signed() {
		if err := verifyRecordSignature(data, rec); err != nil {
			return Link{}, Link{}, err
		}
	}
	return prev, curr, nil
}

// VerifyChain checks a record sequence end to end: each record verifies on
// its own, each Prev-Link equals the preceding record's Link, and sequence
// numbers increase by one. head is the expected Prev-Link of the first
// record; use EmptyLink() for a journal verified from its genesis. It
// returns the final link.
func VerifyChain(records [][]byte, head Link) (Link, error) {
	link := head
	var lastSeq uint64
	for i, data := range records {
		prev, curr, err := VerifyRecord(data)
		if err != nil {
			return Link{}, fmt.Errorf("journal: record %d: %w", i, err)
		}
		if prev != link {
			return Link{}, fmt.Errorf("journal: record %d: chain discontinuity", i)
		}
		rec, err := ParseRecord(data)
		if err != nil {
			return Link{}, err
		}
		seq, err := rec.Seq()
		if err != nil {
			return Link{}, fmt.Errorf("journal: record %d: %w", i, err)
		}
		if i > 0 && seq != lastSeq+1 {
			return Link{}, fmt.Errorf("journal: record %d: sequence gap (%d after %d)", i, seq, lastSeq)
		}
		lastSeq = seq
		link = curr
	}
	return link, nil
}

// eventScope returns the bytes covered by the chain link: the preamble
// through the last EVENT line, inclusive.
func eventScope(data []byte) ([]byte, error) {
	marker := []byte("\n\nCHAIN\n")
	idx := bytes.Index(data, marker)
	if idx < 0 {
		return nil, errors.New("journal: cannot determine event scope")
	}
	return data[:idx+1], nil
}

func verifyRecordSignature(data []byte, rec *Record) error {
	sigAlg := rec.Crypto["Signature-Alg"]
	hashAlg := rec.Crypto["Hash-Alg"]
	key := rec.Crypto["Journal-Key"]
	sigB64 := rec.Crypto["Signature"]
	if sigAlg == "" || hashAlg == "" || key == "" || sigB64 == "" {
		return errors.New("journal: incomplete signature fields")
	}
	if sigAlg != "ed25519" {
		return fmt.Errorf("journal: unsupported Signature-Alg %q", sigAlg)
	}
	if hashAlg != "sha256" {
		return fmt.Errorf("journal: unsupported Hash-Alg %q", hashAlg)
	}

	const prefix = "ed25519:"
	if !strings.HasPrefix(key, prefix) {
		return fmt.Errorf("journal: unsupported Journal-Key %q", key)
	}
	pub, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(key, prefix))
	if err != nil {
		return fmt.Errorf("journal: invalid Journal-Key encoding: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return errors.New("journal: invalid Journal-Key length")
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("journal: invalid Signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return errors.New("journal: invalid Signature length")
	}

	scope, err := recordSignatureScope(data)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(scope)
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
		return errors.New("journal: signature did not verify")
	}
	return nil
}
