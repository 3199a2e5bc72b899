package journal

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is the parsed view of one journal record.
type Record struct {
	Meta   map[string]string
	Event  map[string]string
	Chain  map[string]string
	Crypto map[string]string
}

var recordSections = []string{"META", "EVENT", "CHAIN", "CRYPTO"}

// ParseRecord parses a journal record. Byte-level rules match the repo's
// other canonical text formats: UTF-8, LF line endings, no BOM, no trailing
// whitespace on any line.
func ParseRecord(data []byte) (*Record, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, errors.New("journal: BOM not allowed")
	}
	if bytes.Contains(data, []byte("\r")) {
		return nil, errors.New("journal: CR line endings not allowed")
	}
	text := string(data)
	if !strings.HasSuffix(text, Postamble+"\n") {
		return nil, errors.New("journal: missing record postamble")
	}
	if !strings.HasPrefix(text, Preamble+"\n") {
		return nil, errors.New("journal: missing record preamble")
	}

	rec := &Record{
		Meta:   map[string]string{},
		Event:  map[string]string{},
		Chain:  map[string]string{},
		Crypto: map[string]string{},
	}
	targets := map[string]map[string]string{
		"META":   rec.Meta,
		"EVENT":  rec.Event,
		"CHAIN":  rec.Chain,
		"CRYPTO": rec.Crypto,
	}

	body := strings.TrimSuffix(strings.TrimPrefix(text, Preamble+"\n"), Postamble+"\n")
	var curr map[string]string
	sectionIndex := -1
	for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
		if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			return nil, errors.New("journal: trailing whitespace forbidden")
		}
		if line == "" {
			curr = nil
			continue
		}
		if isRecordSection(line) {
			idx := sectionIndexOf(line)
			if idx <= sectionIndex {
				return nil, fmt.Errorf("journal: section %s out of order", line)
			}
			sectionIndex = idx
			curr = targets[line]
			continue
		}
		if curr == nil {
			return nil, fmt.Errorf("journal: content outside section: %q", line)
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok || key == "" || val == "" {
			return nil, fmt.Errorf("journal: invalid key-value line %q", line)
		}
		if _, exists := curr[key]; exists {
			return nil, fmt.Errorf("journal: duplicate key %q", key)
		}
		curr[key] = val
	}

	for _, name := range []string{"META", "EVENT", "CHAIN"} {
		if len(targets[name]) == 0 {
			return nil, fmt.Errorf("journal: missing %s section", name)
		}
	}
	return rec, nil
}

// Seq returns the record's event sequence number.
func (r *Record) Seq() (uint64, error) {
	n, err := strconv.ParseUint(r.Event["Seq"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("journal: invalid Seq: %w", err)
	}
	return n, nil
}

// Time returns the record's event timestamp.
func (r *Record) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, r.Event["Time"])
	if err != nil {
		return time.Time{}, fmt.Errorf("journal: invalid Time: %w", err)
	}
	return t, nil
}

// Links returns the record's previous and current chain links.
func (r *Record) Links() (prev, curr Link, err error) {
	prev, err = ParseLink(r.Chain["Prev-Link"])
	if err != nil {
		return Link{}, Link{}, err
	}
	curr, err = ParseLink(r.Chain["Link"])
	if err != nil {
		return Link{}, Link{}, err
	}
	return prev, curr, nil
}

// Signed reports whether the record carries a CRYPTO section.
func (r *Record) Signed() bool {
	return len(r.Crypto) > 0
}

func isRecordSection(line string) bool {
	return sectionIndexOf(line) >= 0
}

func sectionIndexOf(line string) int {
	for i, s := range recordSections {
		if line == s {
			return i
		}
	}
	return -1
}
