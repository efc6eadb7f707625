package interpreter

import (
	"fmt"

	"github.com/liamcoop/nlquery/internal/logger"
	"github.com/liamcoop/nlquery/rules"
)

// Template identifies which canonical query form was selected
type Template string

const (
	TemplateSalesByRegion      Template = rules.TemplateSalesByRegion
	TemplateCustomersByCountry Template = rules.TemplateCustomersByCountry
	TemplateMonthlyRevenue     Template = rules.TemplateMonthlyRevenue
	TemplateTopProducts        Template = rules.TemplateTopProducts
	TemplateFallback           Template = "fallback"
)

var templateSQL = map[Template]string{
	TemplateSalesByRegion:      "SELECT region, SUM(sales_amount) FROM sales GROUP BY region ORDER BY SUM(sales_amount) DESC",
	TemplateCustomersByCountry: "SELECT country, COUNT(*) FROM customers GROUP BY country ORDER BY COUNT(*) DESC",
	TemplateMonthlyRevenue:     "SELECT DATE_TRUNC('month', order_date) as month, SUM(order_total) FROM orders GROUP BY month ORDER BY month",
	TemplateTopProducts:        "SELECT product_name, SUM(quantity_sold) FROM sales JOIN products ON sales.product_id = products.id GROUP BY product_name ORDER BY SUM(quantity_sold) DESC LIMIT 10",
	TemplateFallback:           "SELECT * FROM " + SentinelTable + " LIMIT 100",
}

// SQL returns the display text of the template
func (t Template) SQL() string {
	return templateSQL[t]
}

// Known reports whether t has a canonical query form
func (t Template) Known() bool {
	_, ok := templateSQL[t]
	return ok
}

// SynthesizedQuery is the selected template plus its literal query text
type SynthesizedQuery struct {
	Template Template `json:"template"`
	SQL      string   `json:"sql"`
}

// Synthesizer selects a canonical template for a normalized query
type Synthesizer struct {
	engine *rules.Engine
}

// NewSynthesizer creates a synthesizer over the engine's template rule set
func NewSynthesizer(engine *rules.Engine) *Synthesizer {
	return &Synthesizer{engine: engine}
}

// Synthesize returns the template of the first matching template rule,
// falling back to the generic select when none matches
func (s *Synthesizer) Synthesize(normalized string) (SynthesizedQuery, error) {
	match, err := s.engine.FirstMatch(rules.SetTemplate, normalized)
	if err != nil {
		return SynthesizedQuery{}, fmt.Errorf("failed to evaluate template rules: %w", err)
	}

	tmpl := TemplateFallback
	if match != nil {
		tmpl = Template(match.Result)
		if !tmpl.Known() {
			logger.Warn("template rule names unknown template", "rule_id", match.RuleID, "template", match.Result)
			tmpl = TemplateFallback
		}
	}

	return SynthesizedQuery{Template: tmpl, SQL: tmpl.SQL()}, nil
}
