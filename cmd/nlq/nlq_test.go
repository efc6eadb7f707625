package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/liamcoop/nlquery/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// execute runs the CLI with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	seed, output, rulesFile, logLevel = 0, outputJSON, "", "WARN"
	previewLimit, ruleSet = 10, ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestProcessCommand(t *testing.T) {
	out, err := execute(t, "process", "--seed", "3", "Show", "me", "sales", "by", "region")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, "Show me sales by region", result["originalQuery"])
	assert.Equal(t, "SELECT region, SUM(sales_amount) FROM sales GROUP BY region ORDER BY SUM(sales_amount) DESC", result["sqlQuery"])
	assert.Len(t, result["results"], 6)
}

func TestExplainCommandYAML(t *testing.T) {
	out, err := execute(t, "explain", "-o", "yaml", "compare customers by country")
	require.NoError(t, err)

	var result struct {
		SQLQuery    string `yaml:"sqlQuery"`
		Explanation struct {
			Intent          string   `yaml:"intent"`
			DataSourcesUsed []string `yaml:"dataSourcesUsed"`
		} `yaml:"explanation"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, "Comparison Analysis", result.Explanation.Intent)
	assert.Equal(t, []string{"customers"}, result.Explanation.DataSourcesUsed)
	assert.Contains(t, result.SQLQuery, "FROM customers")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "asdf")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, false, result["isValid"])
	assert.NotEmpty(t, result["suggestedReformulation"])
}

func TestInterpretCommand(t *testing.T) {
	out, err := execute(t, "interpret", "Top", "Products", "last", "year")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "top products last year", result["query"])
	assert.Equal(t, "Ranking Analysis", result["intent"])
	assert.Equal(t, "top_products", result["template"])
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "process")
	assert.Error(t, err, "missing query words")

	_, err = execute(t, "process", "   ")
	assert.Error(t, err, "blank query")

	_, err = execute(t, "explain", "-o", "xml", "sales")
	assert.Error(t, err, "unknown output format")

	_, err = execute(t, "rules", "--set", "colour")
	assert.Error(t, err)

	_, err = execute(t, "tables", "invoices")
	assert.Error(t, err)
}

func TestTablesCommand(t *testing.T) {
	out, err := execute(t, "tables", "--seed", "5")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tables":[
		{"name":"sales","rows":1000},
		{"name":"customers","rows":500},
		{"name":"products","rows":100},
		{"name":"orders","rows":2000},
		{"name":"employees","rows":50}
	]}`, out)

	out, err = execute(t, "tables", "products", "-n", "3")
	require.NoError(t, err)

	var preview struct {
		Rows    int              `json:"rows"`
		Preview []map[string]any `json:"preview"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	assert.Equal(t, 100, preview.Rows)
	assert.Len(t, preview.Preview, 3)
}

func TestRulesCommandExportsLoadableCatalog(t *testing.T) {
	out, err := execute(t, "rules", "-o", "yaml")
	require.NoError(t, err)

	loaded, err := rules.LoadCatalog(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	assert.Len(t, loaded, len(rules.DefaultRules()))

	out, err = execute(t, "rules", "--set", "region")
	require.NoError(t, err)

	var listed struct {
		Rules []rules.Rule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Rules, 3)
	assert.Equal(t, "North America", listed.Rules[0].Result)
}

func TestRulesFileReplacesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	catalog := `
rules:
  - id: tables.invoices
    set: tables
    name: Invoices table
    expression: 'text.contains("invoice")'
    result: invoices
  - id: intent.forecast
    set: intent
    name: Forecast keywords
    expression: '["forecast", "predict"].exists(k, text.contains(k))'
    result: Forecast Analysis
`
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))

	out, err := execute(t, "interpret", "--rules-file", path, "forecast", "invoice", "sales")
	require.NoError(t, err)

	var result struct {
		Entities struct {
			Tables []string `json:"tables"`
		} `json:"entities"`
		Intent   string `json:"intent"`
		Template string `json:"template"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"invoices"}, result.Entities.Tables)
	assert.Equal(t, "Forecast Analysis", result.Intent)
	assert.Equal(t, "fallback", result.Template)
}
