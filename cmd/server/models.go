package main

import (
	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/interpreter"
	"github.com/liamcoop/nlquery/rules"
)

// API request and response models

// QueryRequest is the body of /query, /explain and /validate
type QueryRequest struct {
	Query string `json:"query" validate:"required"`
}

// QueryResponse wraps the result of /query
type QueryResponse struct {
	Result *interpreter.ProcessResult `json:"result"`
}

// ExplainResponse wraps the result of /explain
type ExplainResponse struct {
	Explanation *interpreter.ExplainResult `json:"explanation"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	RuleStore string `json:"ruleStore"`
	Rules     int    `json:"rules"`
	Tables    int    `json:"tables"`
}

// TablesResponse lists the reference tables
type TablesResponse struct {
	Tables []dataset.Summary `json:"tables"`
}

// TablePreviewResponse holds the first rows of one table
type TablePreviewResponse struct {
	Name    string        `json:"name"`
	Rows    int           `json:"rows"`
	Preview []dataset.Row `json:"preview"`
}

// RuleRequest is the body for creating or updating a rule.
// ID is taken from the path on update.
type RuleRequest struct {
	ID         string `json:"id"`
	Set        string `json:"set" validate:"required,oneof=tables fields time_period region intent template"`
	Position   int    `json:"position" validate:"gte=0"`
	Name       string `json:"name" validate:"required"`
	Expression string `json:"expression" validate:"required,max=4096"`
	Result     string `json:"result" validate:"required"`
	Active     *bool  `json:"active,omitempty"`
}

func (req RuleRequest) toRule(id string) *rules.Rule {
	return &rules.Rule{
		ID:         id,
		Set:        rules.RuleSet(req.Set),
		Position:   req.Position,
		Name:       req.Name,
		Expression: req.Expression,
		Result:     req.Result,
		Active:     req.Active == nil || *req.Active,
	}
}

// RulesListResponse represents the response for listing rules
type RulesListResponse struct {
	Rules []*rules.Rule `json:"rules"`
}
