package interpreter

import (
	"fmt"

	"github.com/liamcoop/nlquery/rules"
)

// Intent is the analytical purpose of a query
type Intent string

const (
	IntentComparison  Intent = rules.IntentComparison
	IntentTrend       Intent = rules.IntentTrend
	IntentRanking     Intent = rules.IntentRanking
	IntentStatistical Intent = rules.IntentStatistical
	IntentGeneral     Intent = "General Data Query"
)

// Classifier assigns exactly one intent per query
type Classifier struct {
	engine *rules.Engine
}

// NewClassifier creates a classifier over the engine's intent rule set
func NewClassifier(engine *rules.Engine) *Classifier {
	return &Classifier{engine: engine}
}

// Classify returns the intent of the first matching intent rule, or
// IntentGeneral when none matches
func (c *Classifier) Classify(normalized string) (Intent, error) {
	match, err := c.engine.FirstMatch(rules.SetIntent, normalized)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate intent rules: %w", err)
	}
	if match == nil {
		return IntentGeneral, nil
	}
	return Intent(match.Result), nil
}
