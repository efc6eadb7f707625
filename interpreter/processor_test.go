package interpreter

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	opts = append([]Option{WithRand(NewRand(42))}, opts...)
	return NewProcessor(newTestEngine(t), dataset.New(dataset.WithSeed(42)), opts...)
}

func TestProcessor_SalesByRegionScenario(t *testing.T) {
	p := newTestProcessor(t)
	const raw = "Show me sales by region for last quarter"

	result, err := p.Process(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, result.OriginalQuery)
	assert.Equal(t, "SELECT region, SUM(sales_amount) FROM sales GROUP BY region ORDER BY SUM(sales_amount) DESC", result.SQLQuery)
	assert.Len(t, result.Results, 6)

	explained, err := p.Explain(raw)
	require.NoError(t, err)
	assert.Equal(t, result.SQLQuery, explained.SQLQuery)
	assert.Equal(t, []string{"sales"}, explained.Explanation.DataSourcesUsed)
	assert.Equal(t, []string{"sales_amount", "region"}, explained.Explanation.FieldsAnalyzed)
	assert.Equal(t, map[string]string{"time_period": "last quarter"}, explained.Explanation.FiltersApplied)
	assert.Equal(t, IntentGeneral, explained.Explanation.Intent)

	validation, err := p.Validate(raw)
	require.NoError(t, err)
	assert.True(t, validation.IsValid)
}

func TestProcessor_TopProductsScenario(t *testing.T) {
	p := newTestProcessor(t)

	explained, err := p.Explain("top products")
	require.NoError(t, err)
	assert.Equal(t, TemplateTopProducts.SQL(), explained.SQLQuery)
	assert.Equal(t, IntentRanking, explained.Explanation.Intent)
}

func TestProcessor_UnrecognizedScenario(t *testing.T) {
	p := newTestProcessor(t)

	explained, err := p.Explain("asdf qwerty")
	require.NoError(t, err)
	assert.Equal(t, []string{"data_table"}, explained.Explanation.DataSourcesUsed)
	assert.Equal(t, "SELECT * FROM data_table LIMIT 100", explained.SQLQuery)
	assert.Empty(t, explained.Explanation.FieldsAnalyzed)

	result, err := p.Process("asdf qwerty")
	require.NoError(t, err)
	assert.Len(t, result.Results, 3)

	validation, err := p.Validate("asdf qwerty")
	require.NoError(t, err)
	assert.False(t, validation.IsValid)
	require.NotNil(t, validation.SuggestedReformulation)
	assert.Equal(t, ReformulationHint, *validation.SuggestedReformulation)
}

func TestProcessor_EmptyQuery(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.Process("   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = p.Explain("")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = p.Validate("\n")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestProcessor_ExecutionTimeLabel(t *testing.T) {
	p := newTestProcessor(t)

	for i := 0; i < 100; i++ {
		result, err := p.Process("monthly revenue")
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(result.ExecutionTime, "ms"), result.ExecutionTime)
		ms, err := strconv.Atoi(strings.TrimSuffix(result.ExecutionTime, "ms"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ms, 50)
		assert.Less(t, ms, 250)
	}
}

// Determinism is asserted on the interpreted fields only; result rows and
// the execution time label are allowed to vary between calls.
func TestProcessor_DeterministicFields(t *testing.T) {
	for _, ttl := range []Option{WithCacheTTL(0), WithCacheTTL(DefaultCacheTTL)} {
		p := newTestProcessor(t, ttl)
		const raw = "Compare customers by country in Europe this year"

		first, err := p.Explain(raw)
		require.NoError(t, err)
		second, err := p.Explain(raw)
		require.NoError(t, err)

		assert.Equal(t, first.SQLQuery, second.SQLQuery)
		assert.Equal(t, first.Explanation, second.Explanation)

		a, err := p.Process(raw)
		require.NoError(t, err)
		b, err := p.Process(raw)
		require.NoError(t, err)
		assert.Equal(t, a.SQLQuery, b.SQLQuery)
	}
}

func TestProcessor_MemoizedResultsAreIsolated(t *testing.T) {
	p := newTestProcessor(t)

	first, err := p.Explain("sales by region in asia")
	require.NoError(t, err)
	first.Explanation.DataSourcesUsed[0] = "mutated"
	first.Explanation.FiltersApplied["region"] = "mutated"

	second, err := p.Explain("sales by region in asia")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, second.Explanation.DataSourcesUsed)
	assert.Equal(t, "Asia", second.Explanation.FiltersApplied["region"])
}

func TestProcessor_FlushPicksUpRuleChanges(t *testing.T) {
	engine := newTestEngine(t)
	p := NewProcessor(engine, dataset.New(dataset.WithSeed(1)))

	entities, _, _, err := p.Interpret("invoice totals")
	require.NoError(t, err)
	assert.Equal(t, []string{SentinelTable}, entities.Tables)

	require.NoError(t, engine.AddRule(&rules.Rule{
		ID:         "tables.invoices",
		Set:        rules.SetTables,
		Position:   60,
		Name:       "Invoices table",
		Expression: rules.Contains("invoice"),
		Result:     "invoices",
		Active:     true,
	}))
	p.Flush()

	entities, _, _, err = p.Interpret("invoice totals")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoices"}, entities.Tables)

	validation, err := p.Validate("invoice totals")
	require.NoError(t, err)
	assert.True(t, validation.IsValid)
	assert.Equal(t, []string{"invoices"}, validation.MissingData)
}

func TestProcessor_ConcurrentRequests(t *testing.T) {
	p := newTestProcessor(t)
	queries := []string{
		"Show me sales by region for last quarter",
		"top products",
		"asdf qwerty",
		"monthly revenue trend",
		"customers by country",
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2*50*len(queries))
	for i := 0; i < 50; i++ {
		for _, q := range queries {
			wg.Add(1)
			go func(q string) {
				defer wg.Done()
				if _, err := p.Process(q); err != nil {
					errs <- err
				}
				if _, err := p.Validate(q); err != nil {
					errs <- err
				}
			}(q)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent request failed: %v", err)
	}
}

// pausingStore holds one ListActive(tables) call until release is closed
type pausingStore struct {
	*rules.InMemoryRuleStore
	armed   atomic.Bool
	listed  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *pausingStore) ListActive(set rules.RuleSet) ([]*rules.Rule, error) {
	list, err := s.InMemoryRuleStore.ListActive(set)
	if set == rules.SetTables && s.armed.Load() {
		s.once.Do(func() {
			close(s.listed)
			<-s.release
		})
	}
	return list, err
}

func TestProcessor_RuleChangeDuringInterpretation(t *testing.T) {
	store := &pausingStore{
		InMemoryRuleStore: rules.NewDefaultStore(),
		listed:            make(chan struct{}),
		release:           make(chan struct{}),
	}
	engine, err := rules.NewEngine(store)
	require.NoError(t, err)
	p := NewProcessor(engine, dataset.New(dataset.WithSeed(1)))

	// Empty the engine's set cache so the next interpretation reads the store
	require.NoError(t, engine.AddRule(&rules.Rule{
		ID: "region.africa", Set: rules.SetRegion, Position: 40,
		Name: "Africa", Expression: rules.Contains("africa"), Result: "Africa", Active: true,
	}))
	store.armed.Store(true)

	done := make(chan error)
	go func() {
		_, _, _, err := p.Interpret("invoice totals")
		done <- err
	}()

	<-store.listed
	require.NoError(t, engine.AddRule(&rules.Rule{
		ID: "tables.invoices", Set: rules.SetTables, Position: 60,
		Name: "Invoices table", Expression: rules.Contains("invoice"), Result: "invoices", Active: true,
	}))
	close(store.release)
	require.NoError(t, <-done)

	entities, _, _, err := p.Interpret("invoice totals")
	require.NoError(t, err)
	assert.Equal(t, []string{"invoices"}, entities.Tables)
}

