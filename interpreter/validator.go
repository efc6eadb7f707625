package interpreter

import "github.com/liamcoop/nlquery/dataset"

// ReformulationHint is suggested whenever a query names no known table
const ReformulationHint = "Try specifying which data you want to analyze. For example: 'Show me sales by region for last quarter'"

// Confidence ranges; the score is a stand-in, not a calibrated probability
const (
	validConfidenceMin    = 70
	validConfidenceSpan   = 30 // [70, 99]
	invalidConfidenceMin  = 10
	invalidConfidenceSpan = 40 // [10, 49]
)

// ValidationResult reports whether a query can be processed
type ValidationResult struct {
	IsValid                bool     `json:"isValid" yaml:"isValid"`
	Confidence             int      `json:"confidence" yaml:"confidence"`
	MissingData            []string `json:"missingData" yaml:"missingData"`
	SuggestedReformulation *string  `json:"suggestedReformulation" yaml:"suggestedReformulation"`
}

// Validator scores extracted entities against the dataset
type Validator struct {
	store *dataset.Store
	rand  Rand
}

// NewValidator creates a validator checking tables against store
func NewValidator(store *dataset.Store, rand Rand) *Validator {
	return &Validator{store: store, rand: rand}
}

// Validate marks a query valid when at least one real table was recognized.
// MissingData lists recognized tables the store does not hold; the sentinel
// is a placeholder, not a requested table, and is never reported.
func (v *Validator) Validate(e Entities) ValidationResult {
	missing := []string{}
	for _, table := range e.Tables {
		if table == SentinelTable {
			continue
		}
		if !v.store.Has(table) {
			missing = append(missing, table)
		}
	}

	if e.IsSentinel() {
		hint := ReformulationHint
		return ValidationResult{
			IsValid:                false,
			Confidence:             invalidConfidenceMin + v.rand.IntN(invalidConfidenceSpan),
			MissingData:            missing,
			SuggestedReformulation: &hint,
		}
	}

	return ValidationResult{
		IsValid:     true,
		Confidence:  validConfidenceMin + v.rand.IntN(validConfidenceSpan),
		MissingData: missing,
	}
}
