package interpreter

import (
	"fmt"
	"maps"
	"slices"

	"github.com/liamcoop/nlquery/rules"
)

// SentinelTable stands in for the data source when no table keyword matched
const SentinelTable = "data_table"

// Filter kinds
const (
	FilterTimePeriod = "time_period"
	FilterRegion     = "region"
)

// filterSets maps each filter kind to the rule set deciding its value.
// Within a set the first matching rule wins.
var filterSets = []struct {
	kind string
	set  rules.RuleSet
}{
	{FilterTimePeriod, rules.SetTimePeriod},
	{FilterRegion, rules.SetRegion},
}

// Entities are the tables, fields and filters recognized in a query
type Entities struct {
	Tables  []string          `json:"tables"`
	Fields  []string          `json:"fields"`
	Filters map[string]string `json:"filters"`
}

// IsSentinel reports whether no real table was recognized
func (e Entities) IsSentinel() bool {
	return len(e.Tables) == 1 && e.Tables[0] == SentinelTable
}

func (e Entities) clone() Entities {
	return Entities{
		Tables:  slices.Clone(e.Tables),
		Fields:  slices.Clone(e.Fields),
		Filters: maps.Clone(e.Filters),
	}
}

// Extractor derives entities from normalized text
type Extractor struct {
	engine *rules.Engine
}

// NewExtractor creates an extractor evaluating the engine's table, field and filter sets
func NewExtractor(engine *rules.Engine) *Extractor {
	return &Extractor{engine: engine}
}

// Extract evaluates every table and field rule and the first-match filter
// rules. Tables are never empty: no match yields [SentinelTable].
func (x *Extractor) Extract(normalized string) (Entities, error) {
	tables, err := x.Tables(normalized)
	if err != nil {
		return Entities{}, err
	}

	fields, err := x.Fields(normalized)
	if err != nil {
		return Entities{}, err
	}

	filters, err := x.Filters(normalized)
	if err != nil {
		return Entities{}, err
	}

	return Entities{Tables: tables, Fields: fields, Filters: filters}, nil
}

// Tables returns the matched table names in rule order without duplicates
func (x *Extractor) Tables(normalized string) ([]string, error) {
	matches, err := x.engine.AllMatches(rules.SetTables, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate table rules: %w", err)
	}

	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		if !slices.Contains(tables, m.Result) {
			tables = append(tables, m.Result)
		}
	}

	if len(tables) == 0 {
		return []string{SentinelTable}, nil
	}
	return tables, nil
}

// Fields returns one field per matching field rule, in rule order
func (x *Extractor) Fields(normalized string) ([]string, error) {
	matches, err := x.engine.AllMatches(rules.SetFields, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate field rules: %w", err)
	}

	fields := make([]string, 0, len(matches))
	for _, m := range matches {
		fields = append(fields, m.Result)
	}
	return fields, nil
}

// Filters returns at most one value per filter kind
func (x *Extractor) Filters(normalized string) (map[string]string, error) {
	filters := make(map[string]string, len(filterSets))
	for _, fs := range filterSets {
		match, err := x.engine.FirstMatch(fs.set, normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s rules: %w", fs.kind, err)
		}
		if match != nil {
			filters[fs.kind] = match.Result
		}
	}
	return filters, nil
}
