package rules

import "time"

// RuleSet names an ordered chain of rules evaluated against the same text
type RuleSet string

const (
	SetTables     RuleSet = "tables"
	SetFields     RuleSet = "fields"
	SetTimePeriod RuleSet = "time_period"
	SetRegion     RuleSet = "region"
	SetIntent     RuleSet = "intent"
	SetTemplate   RuleSet = "template"
)

// KnownSets lists every rule set in the order the interpreter consults them
var KnownSets = []RuleSet{SetTables, SetFields, SetTimePeriod, SetRegion, SetIntent, SetTemplate}

// Valid reports whether s is one of KnownSets
func (s RuleSet) Valid() bool {
	for _, known := range KnownSets {
		if s == known {
			return true
		}
	}
	return false
}

// Rule is one (predicate, result) pair inside a rule set.
// Expression is a CEL boolean expression over the normalized query `text`;
// Result is the value the rule contributes when the expression holds.
// Position fixes evaluation order within the set (lower first).
type Rule struct {
	ID         string    `json:"id" yaml:"id"`
	Set        RuleSet   `json:"set" yaml:"set"`
	Position   int       `json:"position" yaml:"position"`
	Name       string    `json:"name" yaml:"name"`
	Expression string    `json:"expression" yaml:"expression"`
	Result     string    `json:"result" yaml:"result"`
	Active     bool      `json:"active" yaml:"active"`
	CreatedAt  time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"-"`
}

// EvaluationResult contains the outcome of evaluating a rule
type EvaluationResult struct {
	RuleID   string
	RuleName string
	Result   string
	Matched  bool
	Error    error
}
