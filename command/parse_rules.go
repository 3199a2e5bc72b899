package command

import (
	"bytes"
	"unicode/utf8"
)

type parseRule struct {
	id    string
	kind  Kind
	apply func([]byte) error
}

func applyParseRules(input []byte, rules []parseRule) error {
	for _, r := range rules {
		if r.apply == nil {
			return newError(KindInternal, "CMD-INTERNAL-010", "nil parse rule")
		}
		if err := r.apply(input); err != nil {
			return err
		}
	}
	return nil
}

func parseRulesV1() []parseRule {
	return []parseRule{
		{
			id:   "CMD-STR-001",
			kind: KindParse,
			apply: func(b []byte) error {
				if !utf8.Valid(b) {
					return newError(KindParse, "CMD-STR-001", "command must be valid UTF-8")
				}
				return nil
			},
		},
		{
			id:   "CMD-CANON-001",
			kind: KindCanonical,
			apply: func(b []byte) error {
				if bytes.Contains(b, []byte("\r")) {
					return newError(KindCanonical, "CMD-CANON-001", "CR line endings not allowed")
				}
				return nil
			},
		},
		{
			id:   "CMD-CANON-002",
			kind: KindCanonical,
			apply: func(b []byte) error {
				if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
					return newError(KindCanonical, "CMD-CANON-002", "BOM not allowed")
				}
				return nil
			},
		},
		{
			id:   "CMD-CANON-003",
			kind: KindCanonical,
			apply: func(b []byte) error {
				if len(b) > 0 && b[len(b)-1] == '\n' {
					return newError(KindCanonical, "CMD-CANON-003", "trailing newline not allowed")
				}
				return nil
			},
		},
		{
			id:   "CMD-STR-010",
			kind: KindParse,
			apply: func(b []byte) error {
				if !bytes.HasPrefix(b, []byte(Preamble)) {
					return newError(KindParse, "CMD-STR-010", "missing command preamble")
				}
				if !bytes.HasSuffix(b, []byte(Postamble)) {
					return newError(KindParse, "CMD-STR-010", "missing command postamble")
				}
				return nil
			},
		},
		{
			id:   "CMD-STR-030",
			kind: KindParse,
			apply: func(b []byte) error {
				for _, line := range bytes.Split(b, []byte("\n")) {
					if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
						return newError(KindParse, "CMD-STR-030", "trailing whitespace forbidden")
					}
				}
				return nil
			},
		},
		{
			id:   "CMD-STR-010",
			kind: KindParse,
			apply: func(b []byte) error {
				// Preamble must appear as the first full line.
				if !bytes.HasPrefix(b, []byte(Preamble+"\n")) && string(b) != Preamble {
					return newError(KindParse, "CMD-STR-010", "command preamble must be on its own line")
				}
				return nil
			},
		},
	}
}
