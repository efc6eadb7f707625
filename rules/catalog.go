package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML layout of a rule catalog
type catalogFile struct {
	Rules []catalogRule `yaml:"rules"`
}

type catalogRule struct {
	ID         string  `yaml:"id"`
	Set        RuleSet `yaml:"set"`
	Position   int     `yaml:"position"`
	Name       string  `yaml:"name"`
	Expression string  `yaml:"expression"`
	Result     string  `yaml:"result"`
	Active     *bool   `yaml:"active"` // omitted means active
}

// LoadCatalog decodes and validates a YAML rule catalog
func LoadCatalog(r io.Reader) ([]*Rule, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode rule catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Rules))
	out := make([]*Rule, 0, len(file.Rules))
	for i, cr := range file.Rules {
		rule := &Rule{
			ID:         cr.ID,
			Set:        cr.Set,
			Position:   cr.Position,
			Name:       cr.Name,
			Expression: cr.Expression,
			Result:     cr.Result,
			Active:     cr.Active == nil || *cr.Active,
		}
		if err := ValidateRule(rule); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("catalog entry %d: rule with ID %s: %w", i, rule.ID, ErrRuleExists)
		}
		seen[rule.ID] = true
		out = append(out, rule)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("rule catalog contains no rules")
	}

	return out, nil
}

// LoadCatalogFile reads a YAML rule catalog from disk
func LoadCatalogFile(path string) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule catalog: %w", err)
	}
	defer f.Close()

	return LoadCatalog(f)
}

// MarshalCatalog encodes rules in the same YAML layout LoadCatalog reads
func MarshalCatalog(list []*Rule) ([]byte, error) {
	file := catalogFile{Rules: make([]catalogRule, len(list))}
	for i, r := range list {
		active := r.Active
		file.Rules[i] = catalogRule{
			ID:         r.ID,
			Set:        r.Set,
			Position:   r.Position,
			Name:       r.Name,
			Expression: r.Expression,
			Result:     r.Result,
			Active:     &active,
		}
	}
	return yaml.Marshal(file)
}
