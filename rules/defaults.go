package rules

import (
	"strconv"
	"strings"
)

// Template identifiers produced by the template rule set
const (
	TemplateSalesByRegion      = "sales_by_region"
	TemplateCustomersByCountry = "customers_by_country"
	TemplateMonthlyRevenue     = "monthly_revenue"
	TemplateTopProducts        = "top_products"
)

// Intent labels produced by the intent rule set
const (
	IntentComparison  = "Comparison Analysis"
	IntentTrend       = "Trend Analysis"
	IntentRanking     = "Ranking Analysis"
	IntentStatistical = "Statistical Analysis"
)

// Contains builds a CEL expression that holds when text contains keyword
func Contains(keyword string) string {
	return TextVariable + ".contains(" + strconv.Quote(keyword) + ")"
}

// AnyOf builds a CEL expression that holds when text contains any keyword
func AnyOf(keywords ...string) string {
	if len(keywords) == 1 {
		return Contains(keywords[0])
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strconv.Quote(k)
	}
	return "[" + strings.Join(quoted, ", ") + "].exists(k, " + TextVariable + ".contains(k))"
}

// AllOf joins expressions with a logical and
func AllOf(exprs ...string) string {
	return strings.Join(exprs, " && ")
}

type ruleSpec struct {
	key    string
	name   string
	expr   string
	result string
}

func buildSet(set RuleSet, specs []ruleSpec) []*Rule {
	out := make([]*Rule, len(specs))
	for i, s := range specs {
		out[i] = &Rule{
			ID:         string(set) + "." + s.key,
			Set:        set,
			Position:   (i + 1) * 10,
			Name:       s.name,
			Expression: s.expr,
			Result:     s.result,
			Active:     true,
		}
	}
	return out
}

// DefaultRules returns a fresh copy of the built-in keyword catalog.
// Table, field, filter and intent sets are matched against the normalized
// query; positions leave gaps of 10 so operators can insert rules between.
func DefaultRules() []*Rule {
	var all []*Rule

	all = append(all, buildSet(SetTables, []ruleSpec{
		{"sales", "Sales table", Contains("sales"), "sales"},
		{"customers", "Customers table", AnyOf("customer", "customers"), "customers"},
		{"products", "Products table", AnyOf("product", "products"), "products"},
		{"orders", "Orders table", AnyOf("order", "orders"), "orders"},
		{"employees", "Employees table", AnyOf("employee", "employees"), "employees"},
	})...)

	all = append(all, buildSet(SetFields, []ruleSpec{
		{"sales_amount", "Sales amount", AnyOf("sales", "revenue"), "sales_amount"},
		{"region", "Region", AnyOf("region", "location"), "region"},
		{"country", "Country", Contains("country"), "country"},
		{"date", "Date", AnyOf("date", "time", "month", "year"), "date"},
		{"product_name", "Product name", AnyOf("product", "item"), "product_name"},
		{"customer_name", "Customer name", Contains("customer"), "customer_name"},
	})...)

	all = append(all, buildSet(SetTimePeriod, []ruleSpec{
		{"last_year", "Last year", Contains("last year"), "last year"},
		{"last_quarter", "Last quarter", Contains("last quarter"), "last quarter"},
		{"last_month", "Last month", Contains("last month"), "last month"},
		{"this_year", "This year", Contains("this year"), "this year"},
	})...)

	all = append(all, buildSet(SetRegion, []ruleSpec{
		{"north_america", "North America", Contains("north america"), "North America"},
		{"europe", "Europe", Contains("europe"), "Europe"},
		{"asia", "Asia", Contains("asia"), "Asia"},
	})...)

	all = append(all, buildSet(SetIntent, []ruleSpec{
		{"comparison", "Comparison keywords", AnyOf("compare", "versus", "vs"), IntentComparison},
		{"trend", "Trend keywords", AnyOf("trend", "over time", "growth"), IntentTrend},
		{"ranking", "Ranking keywords", AnyOf("top", "bottom", "highest", "lowest"), IntentRanking},
		{"statistical", "Statistical keywords", AnyOf("average", "mean", "median"), IntentStatistical},
	})...)

	all = append(all, buildSet(SetTemplate, []ruleSpec{
		{TemplateSalesByRegion, "Sales by region",
			AllOf(Contains("sales"), Contains("region")), TemplateSalesByRegion},
		{TemplateCustomersByCountry, "Customers by country",
			AllOf(Contains("customers"), Contains("country")), TemplateCustomersByCountry},
		{TemplateMonthlyRevenue, "Monthly revenue",
			AllOf(Contains("revenue"), "("+AnyOf("month", "monthly")+")"), TemplateMonthlyRevenue},
		{TemplateTopProducts, "Top products",
			AllOf(Contains("top"), Contains("products")), TemplateTopProducts},
	})...)

	return all
}

// NewDefaultStore returns an in-memory store holding DefaultRules
func NewDefaultStore() *InMemoryRuleStore {
	store := NewInMemoryRuleStore()
	// Seeding an empty in-memory store cannot fail
	_, _ = Seed(store, DefaultRules())
	return store
}
