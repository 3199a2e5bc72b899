package command

import (
	"fmt"
	"strconv"
)

// Mode selects how aggressively validation rejects ambiguity.
//
// Strict mode prefers explicit failure over silent acceptance; it is what the
// server runs. Permissive mode accepts unknown operation names so tooling can
// round-trip envelopes addressed to newer servers.
type Mode int

const (
	Permissive Mode = iota
	Strict
)

// ValidateEnvelope enforces the required META keys: a supported Version, a
// parseable Vault identity, and a decimal Nonce. It is separate from Parse()
// so callers can distinguish malformed bytes from incomplete envelopes.
func ValidateEnvelope(c *Command) error {
	rules := []Rule{
		{ID: "CMD-VAL-101", Apply: func(c *Command) error {
			if c.Version() == "" {
				return newError(KindValidation, "CMD-VAL-101", "missing META Version")
			}
			if c.Version() != "1" {
				return newError(KindValidation, "CMD-VAL-102", "unsupported META Version")
			}
			return nil
		}},
		{ID: "CMD-VAL-103", Apply: func(c *Command) error {
			_, err := c.VaultID()
			return err
		}},
		{ID: "CMD-VAL-105", Apply: func(c *Command) error {
			n := c.Nonce()
			if n == "" {
				return newError(KindValidation, "CMD-VAL-105", "missing META Nonce")
			}
			if _, err := strconv.ParseUint(n, 10, 64); err != nil {
				return wrapError(KindValidation, "CMD-VAL-106", "invalid META Nonce", err)
			}
			return nil
		}},
	}
	return ValidateRules(c, rules)
}

// ValidateOp enforces the per-operation required OP keys.
func ValidateOp(c *Command, mode Mode) error {
	op, ok := c.Sections["OP"]
	if !ok {
		return newError(KindValidation, "CMD-VAL-201", "missing OP")
	}
	name := op.Pairs["Op"]
	if name == "" {
		return newError(KindValidation, "CMD-VAL-202", "missing required key: Op")
	}

	required := func(ruleID, key string) Rule {
		return Rule{ID: ruleID, Apply: func(*Command) error {
			if op.Pairs[key] == "" {
				return newError(KindValidation, ruleID, fmt.Sprintf("missing required key: %s", key))
			}
			return nil
		}}
	}

	// Deterministic evaluation order per operation.
	var rules []Rule
	switch name {
	case OpPing:
		// No operands.
	case OpTransferOwnership:
		rules = []Rule{required("CMD-VAL-211", "New-Owner")}
	case OpSetGuardianRoot:
		rules = []Rule{required("CMD-VAL-221", "Root")}
	case OpRecover:
		rules = []Rule{
			required("CMD-VAL-231", "Guardian"),
			required("CMD-VAL-232", "Delay"),
			required("CMD-VAL-233", "Proof"),
			required("CMD-VAL-234", "New-Owner"),
		}
	case OpTransferNative:
		rules = []Rule{required("CMD-VAL-241", "To"), required("CMD-VAL-242", "Amount")}
	case OpTransferItem:
		rules = []Rule{
			required("CMD-VAL-251", "Ledger"),
			required("CMD-VAL-252", "To"),
			required("CMD-VAL-253", "Item"),
		}
	case OpTransferUnits:
		rules = []Rule{
			required("CMD-VAL-261", "Ledger"),
			required("CMD-VAL-262", "To"),
			required("CMD-VAL-263", "Class"),
			required("CMD-VAL-264", "Amount"),
		}
	default:
		if mode == Strict {
			return newError(KindValidation, "CMD-VAL-203", fmt.Sprintf("unknown operation: %s", name))
		}
		return nil
	}

	return ValidateRules(c, rules)
}
