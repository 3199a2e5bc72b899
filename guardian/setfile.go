package guardian

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// Guardian set file format.
//
// The owner authors the set off-core and commits only its Merkle root to the
// vault. Declaration order is significant: it fixes leaf positions and hence
// proof shapes. Example:
//
//	-----BEGIN VAULT GUARDIAN SET-----
//	META
//	Version: 1
//
//	GUARDIANS
//	Identity: 0x<40 hex>
//	Delay: 72h
//
//	Identity: 0x<40 hex>
//	Delay: 720h
//	-----END VAULT GUARDIAN SET-----

const (
	setPreamble  = "-----BEGIN VAULT GUARDIAN SET-----"
	setPostamble = "-----END VAULT GUARDIAN SET-----"
)

// ParseSet parses a guardian set file.
//
// Byte-level rules match the repo's other canonical text formats: UTF-8, LF
// line endings, no BOM, no trailing whitespace. Delays must be positive and
// whole seconds (the leaf encoding has second granularity). Exact duplicate
// declarations are rejected; the same identity may appear under distinct
// delays.
func ParseSet(data []byte) ([]Declaration, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, errors.New("guardian: BOM not allowed")
	}
	if bytes.Contains(data, []byte("\r")) {
		return nil, errors.New("guardian: CR line endings not allowed")
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			return nil, errors.New("guardian: trailing whitespace forbidden")
		}
	}
	if !bytes.HasPrefix(data, []byte(setPreamble)) {
		return nil, errors.New("guardian: missing set preamble")
	}
	if !bytes.HasSuffix(bytes.TrimSpace(data), []byte(setPostamble)) {
		return nil, errors.New("guardian: missing set postamble")
	}

	reader := bufio.NewReader(bytes.NewReader(data))
	var currSection string
	var decls []Declaration
	seen := map[Hash]bool{}
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" || line == setPreamble {
			if err == io.EOF {
				break
			}
			continue
		}
		if line == setPostamble {
			break
		}
		if line == "META" || line == "GUARDIANS" {
			currSection = line
			if err == io.EOF {
				break
			}
			continue
		}
		if currSection == "META" {
			if !strings.Contains(line, ": ") {
				return nil, fmt.Errorf("guardian: invalid META line %q", line)
			}
			if err == io.EOF {
				break
			}
			continue
		}
		if currSection == "GUARDIANS" && strings.HasPrefix(line, "Identity: ") {
			idStr := strings.TrimPrefix(line, "Identity: ")
			id, perr := identity.Parse(idStr)
			if perr != nil {
				return nil, perr
			}
			delayLine, _ := reader.ReadString('\n')
			delayLine = strings.TrimSpace(delayLine)
			if !strings.HasPrefix(delayLine, "Delay: ") {
				return nil, errors.New("guardian: expected Delay after Identity")
			}
			delay, derr := ParseDelay(strings.TrimPrefix(delayLine, "Delay: "))
			if derr != nil {
				return nil, derr
			}
			d := Declaration{Identity: id, Delay: delay}
			leaf := d.Leaf()
			if seen[leaf] {
				return nil, fmt.Errorf("guardian: duplicate declaration for %s", id)
			}
			seen[leaf] = true
			decls = append(decls, d)
			if err == io.EOF {
				break
			}
			continue
		}
		return nil, fmt.Errorf("guardian: unexpected line %q", line)
	}
	if len(decls) == 0 {
		return nil, errors.New("guardian: set declares no guardians")
	}
	return decls, nil
}

// RenderSet produces canonical set file bytes for a declaration set.
func RenderSet(decls []Declaration) ([]byte, error) {
	if len(decls) == 0 {
		return nil, errors.New("guardian: set declares no guardians")
	}
	var sb strings.Builder
	sb.WriteString(setPreamble)
	sb.WriteString("\nMETA\nVersion: 1\n\nGUARDIANS\n")
	for i, d := range decls {
		if d.Identity.IsZero() {
			return nil, errors.New("guardian: zero identity not allowed")
		}
		if d.Delay <= 0 || d.Delay%time.Second != 0 {
			return nil, fmt.Errorf("guardian: delay must be positive whole seconds, got %s", d.Delay)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Identity: ")
		sb.WriteString(d.Identity.String())
		sb.WriteString("\nDelay: ")
		sb.WriteString(d.Delay.String())
		sb.WriteString("\n")
	}
	sb.WriteString(setPostamble)
	return []byte(sb.String()), nil
}

// ParseDelay parses a recovery delay in Go duration syntax.
func ParseDelay(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("guardian: invalid delay %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("guardian: delay must be positive, got %s", d)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("guardian: delay must be whole seconds, got %s", d)
	}
	return d, nil
}
