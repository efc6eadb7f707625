package interpreter

// processingSteps describes the pipeline stages in order
var processingSteps = []string{
	"Parse natural language query",
	"Identify query intent and required data sources",
	"Convert to structured query language",
	"Execute query against relevant data sources",
	"Format and return results",
}

// Explanation traces how a query was interpreted
type Explanation struct {
	Intent          Intent            `json:"intent" yaml:"intent"`
	DataSourcesUsed []string          `json:"dataSourcesUsed" yaml:"dataSourcesUsed"`
	FieldsAnalyzed  []string          `json:"fieldsAnalyzed" yaml:"fieldsAnalyzed"`
	FiltersApplied  map[string]string `json:"filtersApplied" yaml:"filtersApplied"`
	ProcessingSteps []string          `json:"processingSteps" yaml:"processingSteps"`
}

// Explainer assembles explanations; it performs no inference of its own
type Explainer struct{}

// NewExplainer creates an explainer
func NewExplainer() *Explainer {
	return &Explainer{}
}

// Explain combines an intent and extracted entities with the fixed step list
func (x *Explainer) Explain(intent Intent, e Entities) Explanation {
	steps := make([]string, len(processingSteps))
	copy(steps, processingSteps)

	e = e.clone()
	if e.Fields == nil {
		e.Fields = []string{}
	}
	if e.Filters == nil {
		e.Filters = map[string]string{}
	}

	return Explanation{
		Intent:          intent,
		DataSourcesUsed: e.Tables,
		FieldsAnalyzed:  e.Fields,
		FiltersApplied:  e.Filters,
		ProcessingSteps: steps,
	}
}
