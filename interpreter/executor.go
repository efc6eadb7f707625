package interpreter

import (
	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/internal/logger"
)

// Executor resolves a synthesized query to a result set.
// Results are fixed sample answers keyed by template; they are not
// computed from the generated dataset.
type Executor struct{}

// NewExecutor creates an executor
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute returns a fresh copy of the canned rows for the query's template
func (e *Executor) Execute(q SynthesizedQuery) []dataset.Row {
	logger.Debug("executing query", "template", string(q.Template), "sql", q.SQL)

	switch q.Template {
	case TemplateSalesByRegion:
		return pairs("region", "sales",
			"North America", 1245000,
			"Europe", 1042000,
			"Asia", 897000,
			"South America", 645000,
			"Africa", 392000,
			"Oceania", 287000,
		)
	case TemplateCustomersByCountry:
		return pairs("country", "customers",
			"United States", 12450,
			"United Kingdom", 8970,
			"Germany", 7650,
			"France", 6540,
			"Japan", 5430,
			"Canada", 4320,
		)
	case TemplateMonthlyRevenue:
		return pairs("month", "revenue",
			"2023-01", 1245000,
			"2023-02", 1356000,
			"2023-03", 1467000,
			"2023-04", 1578000,
			"2023-05", 1689000,
			"2023-06", 1790000,
		)
	case TemplateTopProducts:
		return pairs("product_name", "quantity_sold",
			"Smartphone X", 12450,
			"Laptop Pro", 8970,
			"Wireless Earbuds", 7650,
			"Smart Watch", 6540,
			"Tablet Ultra", 5430,
			"Bluetooth Speaker", 4320,
		)
	default:
		return []dataset.Row{
			{"id": 1, "value": "Sample data 1"},
			{"id": 2, "value": "Sample data 2"},
			{"id": 3, "value": "Sample data 3"},
		}
	}
}

// pairs builds two-column rows from alternating label/value arguments
func pairs(labelKey, valueKey string, kv ...any) []dataset.Row {
	rows := make([]dataset.Row, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		rows = append(rows, dataset.Row{labelKey: kv[i], valueKey: kv[i+1]})
	}
	return rows
}
