package interpreter

import (
	"testing"

	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *rules.Engine {
	t.Helper()
	engine, err := rules.NewEngine(rules.NewDefaultStore())
	require.NoError(t, err)
	return engine
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "show me sales", Normalize("  Show ME Sales \n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestNewQuery_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := NewQuery(raw)
		assert.ErrorIs(t, err, ErrEmptyQuery, "raw=%q", raw)
	}
}

func TestNewQuery_KeepsRawAndAssignsID(t *testing.T) {
	q, err := NewQuery(" Top Products ")
	require.NoError(t, err)
	assert.Equal(t, " Top Products ", q.Raw)
	assert.Equal(t, "top products", q.Normalized)
	assert.NotEmpty(t, q.ID)
}

func TestExtractor_Tables(t *testing.T) {
	x := NewExtractor(newTestEngine(t))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no keyword yields sentinel", "asdf qwerty", []string{SentinelTable}},
		{"sales before customers", "customers who drove sales", []string{"sales", "customers"}},
		{"singular and plural counted once", "customer and customers", []string{"customers"}},
		{"all tables in priority order", "employees orders products customers sales", []string{"sales", "customers", "products", "orders", "employees"}},
		{"substring match", "reorder levels", []string{"orders"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.Tables(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_Fields(t *testing.T) {
	x := NewExtractor(newTestEngine(t))

	got, err := x.Fields("revenue by location, country and item per month for each customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales_amount", "region", "country", "date", "product_name", "customer_name"}, got)

	got, err = x.Fields("asdf")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractor_Filters(t *testing.T) {
	x := NewExtractor(newTestEngine(t))

	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{"none", "sales", map[string]string{}},
		{"first listed time period wins", "last month versus last quarter", map[string]string{FilterTimePeriod: "last quarter"}},
		{"last year beats this year", "this year and last year", map[string]string{FilterTimePeriod: "last year"}},
		{"region is display cased", "sales in north america", map[string]string{FilterRegion: "North America"}},
		{"region precedence", "asia and europe", map[string]string{FilterRegion: "Europe"}},
		{"both kinds", "europe this year", map[string]string{FilterTimePeriod: "this year", FilterRegion: "Europe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.Filters(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_Precedence(t *testing.T) {
	c := NewClassifier(newTestEngine(t))

	tests := []struct {
		text string
		want Intent
	}{
		{"compare the trend", IntentComparison},
		{"sales vs costs", IntentComparison},
		{"growth over time", IntentTrend},
		{"lowest performers", IntentRanking},
		{"median order value", IntentStatistical},
		{"top products on average", IntentRanking},
		{"show me sales by region for last quarter", IntentGeneral},
	}

	for _, tt := range tests {
		got, err := c.Classify(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "text=%q", tt.text)
	}
}

func TestSynthesizer_Templates(t *testing.T) {
	s := NewSynthesizer(newTestEngine(t))

	tests := []struct {
		text string
		want Template
	}{
		{"sales by region", TemplateSalesByRegion},
		{"customers per country", TemplateCustomersByCountry},
		{"monthly revenue", TemplateMonthlyRevenue},
		{"revenue by month", TemplateMonthlyRevenue},
		{"top products", TemplateTopProducts},
		{"top products sales by region", TemplateSalesByRegion},
		{"customer country", TemplateFallback},
		{"asdf qwerty", TemplateFallback},
	}

	for _, tt := range tests {
		got, err := s.Synthesize(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Template, "text=%q", tt.text)
		assert.Equal(t, tt.want.SQL(), got.SQL)
	}
}

func TestSynthesizer_UnknownTemplateFallsBack(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.AddRule(&rules.Rule{
		ID:         "template.bogus",
		Set:        rules.SetTemplate,
		Position:   1,
		Name:       "Bogus",
		Expression: rules.Contains("bogus"),
		Result:     "bogus",
		Active:     true,
	}))

	got, err := NewSynthesizer(engine).Synthesize("bogus sales by region")
	require.NoError(t, err)
	assert.Equal(t, TemplateFallback, got.Template)
}

func TestExecutor_CannedResults(t *testing.T) {
	e := NewExecutor()

	rows := e.Execute(SynthesizedQuery{Template: TemplateSalesByRegion})
	require.Len(t, rows, 6)
	assert.Equal(t, dataset.Row{"region": "North America", "sales": 1245000}, rows[0])

	rows = e.Execute(SynthesizedQuery{Template: TemplateTopProducts})
	require.Len(t, rows, 6)
	assert.Equal(t, "Smartphone X", rows[0]["product_name"])

	rows = e.Execute(SynthesizedQuery{Template: TemplateFallback})
	assert.Equal(t, []dataset.Row{
		{"id": 1, "value": "Sample data 1"},
		{"id": 2, "value": "Sample data 2"},
		{"id": 3, "value": "Sample data 3"},
	}, rows)
}

func TestExecutor_UniformKeysAndFreshCopies(t *testing.T) {
	e := NewExecutor()

	for _, tmpl := range []Template{TemplateSalesByRegion, TemplateCustomersByCountry, TemplateMonthlyRevenue, TemplateTopProducts, TemplateFallback} {
		rows := e.Execute(SynthesizedQuery{Template: tmpl})
		require.NotEmpty(t, rows)
		for _, r := range rows {
			assert.Len(t, r, len(rows[0]), "template %s has non-uniform rows", tmpl)
			for k := range rows[0] {
				assert.Contains(t, r, k)
			}
		}
	}

	first := e.Execute(SynthesizedQuery{Template: TemplateMonthlyRevenue})
	first[0]["revenue"] = 0
	second := e.Execute(SynthesizedQuery{Template: TemplateMonthlyRevenue})
	assert.Equal(t, 1245000, second[0]["revenue"])
}

func TestValidator_ConfidenceBounds(t *testing.T) {
	v := NewValidator(dataset.New(dataset.WithSeed(1)), NewRand(11))

	valid := Entities{Tables: []string{"sales"}}
	invalid := Entities{Tables: []string{SentinelTable}}

	for i := 0; i < 500; i++ {
		r := v.Validate(valid)
		assert.True(t, r.IsValid)
		assert.GreaterOrEqual(t, r.Confidence, 70)
		assert.LessOrEqual(t, r.Confidence, 99)
		assert.Nil(t, r.SuggestedReformulation)
		assert.Empty(t, r.MissingData)

		r = v.Validate(invalid)
		assert.False(t, r.IsValid)
		assert.GreaterOrEqual(t, r.Confidence, 10)
		assert.LessOrEqual(t, r.Confidence, 49)
		require.NotNil(t, r.SuggestedReformulation)
		assert.Equal(t, ReformulationHint, *r.SuggestedReformulation)
		assert.Empty(t, r.MissingData)
	}
}

func TestValidator_MissingData(t *testing.T) {
	v := NewValidator(dataset.New(dataset.WithSeed(1)), NewRand(3))

	r := v.Validate(Entities{Tables: []string{"sales", "invoices"}})
	assert.True(t, r.IsValid)
	assert.Equal(t, []string{"invoices"}, r.MissingData)
}

func TestExplainer_FixedSteps(t *testing.T) {
	x := NewExplainer()

	got := x.Explain(IntentTrend, Entities{Tables: []string{"orders"}})
	assert.Equal(t, IntentTrend, got.Intent)
	assert.Equal(t, []string{"orders"}, got.DataSourcesUsed)
	assert.NotNil(t, got.FieldsAnalyzed)
	assert.NotNil(t, got.FiltersApplied)
	assert.Equal(t, []string{
		"Parse natural language query",
		"Identify query intent and required data sources",
		"Convert to structured query language",
		"Execute query against relevant data sources",
		"Format and return results",
	}, got.ProcessingSteps)

	got.ProcessingSteps[0] = "changed"
	assert.Equal(t, "Parse natural language query", x.Explain(IntentGeneral, Entities{}).ProcessingSteps[0])
}
