package command

// Rule is an explicit, named validation rule.
//
// ID must be stable across versions.
// Apply must be deterministic and side-effect free.
type Rule struct {
	ID    string
	Apply func(*Command) error
}

func (r Rule) apply(c *Command) error {
	if r.Apply == nil {
		return newError(KindInternal, "CMD-INTERNAL-001", "nil rule Apply")
	}
	return r.Apply(c)
}

// ValidateRules runs rules in order, returning the first failure.
//
// Determinism note: rule order is the evaluation order; keep it stable.
func ValidateRules(c *Command, rules []Rule) error {
	for _, r := range rules {
		if err := r.apply(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRulesAll runs all rules in order, returning a (deterministically
// ordered) slice of all violations.
func ValidateRulesAll(c *Command, rules []Rule) []error {
	var out []error
	for _, r := range rules {
		if err := r.apply(c); err != nil {
			out = append(out, err)
		}
	}
	return out
}
