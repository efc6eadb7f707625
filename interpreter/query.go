// Package interpreter maps a free-text business question to a canonical
// structured query, a result set, an explanation and a validity score.
// Every decision is a keyword rule evaluated by rules.Engine; nothing is
// learned or persisted per request.
package interpreter

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyQuery is returned when a query is blank after normalization
var ErrEmptyQuery = errors.New("query is empty")

// Query is one incoming question and its normalized form
type Query struct {
	ID         string
	Raw        string
	Normalized string
}

// Normalize lower-cases text and trims surrounding whitespace
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NewQuery normalizes raw and assigns the query an ID
func NewQuery(raw string) (Query, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return Query{}, ErrEmptyQuery
	}

	return Query{
		ID:         uuid.NewString(),
		Raw:        raw,
		Normalized: normalized,
	}, nil
}
