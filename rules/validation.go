package rules

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxIdentifierLength = 100
	maxExpressionLength = 4096
)

var validRuleID = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z0-9_]+)*$`)

// ValidateRule checks the static shape of a rule before it is compiled or stored.
// Whether the expression compiles is checked separately by the engine.
func ValidateRule(r *Rule) error {
	if r == nil {
		return fmt.Errorf("rule cannot be nil")
	}

	if err := validateIdentifier(r.ID); err != nil {
		return fmt.Errorf("invalid rule ID %q: %w", r.ID, err)
	}

	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule %q must have a name", r.ID)
	}

	if !r.Set.Valid() {
		return fmt.Errorf("rule %q has unknown set %q (must be one of: %s)", r.ID, r.Set, joinSets())
	}

	if r.Position < 0 {
		return fmt.Errorf("rule %q has negative position %d", r.ID, r.Position)
	}

	expr := strings.TrimSpace(r.Expression)
	if expr == "" {
		return fmt.Errorf("rule %q has empty expression", r.ID)
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("rule %q expression length %d exceeds maximum of %d characters", r.ID, len(expr), maxExpressionLength)
	}

	if r.Result == "" {
		return fmt.Errorf("rule %q has empty result", r.ID)
	}
	if strings.TrimSpace(r.Result) != r.Result {
		return fmt.Errorf("rule %q has result with leading/trailing whitespace: %q", r.ID, r.Result)
	}

	return nil
}

// validateIdentifier checks a dotted lower-case rule identifier of 1-100 characters
func validateIdentifier(id string) error {
	if len(id) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(id), maxIdentifierLength)
	}

	if !validRuleID.MatchString(id) {
		return fmt.Errorf("must match pattern %s (lower-case segments separated by dots)", validRuleID.String())
	}

	return nil
}

func joinSets() string {
	names := make([]string, len(KnownSets))
	for i, s := range KnownSets {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
