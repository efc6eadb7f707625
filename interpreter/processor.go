package interpreter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/liamcoop/nlquery/dataset"
	"github.com/liamcoop/nlquery/internal/logger"
	"github.com/liamcoop/nlquery/internal/metrics"
	"github.com/liamcoop/nlquery/rules"
	"github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is how long an interpretation stays memoized
const DefaultCacheTTL = 10 * time.Minute

// Operation names used in logs and metrics
const (
	OpProcess   = "process"
	OpExplain   = "explain"
	OpValidate  = "validate"
	OpInterpret = "interpret"
)

// ProcessResult is the answer to a query
type ProcessResult struct {
	OriginalQuery string        `json:"originalQuery" yaml:"originalQuery"`
	SQLQuery      string        `json:"sqlQuery" yaml:"sqlQuery"`
	Results       []dataset.Row `json:"results" yaml:"results"`
	// ExecutionTime is a synthetic label, not a measurement
	ExecutionTime string `json:"executionTime" yaml:"executionTime"`
}

// ExplainResult traces a query without executing it
type ExplainResult struct {
	OriginalQuery string      `json:"originalQuery" yaml:"originalQuery"`
	SQLQuery      string      `json:"sqlQuery" yaml:"sqlQuery"`
	Explanation   Explanation `json:"explanation" yaml:"explanation"`
}

// interpretation is the deterministic part of handling a query
type interpretation struct {
	Entities Entities
	Intent   Intent
	Query    SynthesizedQuery
}

func (in interpretation) clone() interpretation {
	in.Entities = in.Entities.clone()
	return in
}

// Processor runs the full pipeline: normalize, extract, classify,
// synthesize, then execute, explain or validate
type Processor struct {
	engine      *rules.Engine
	extractor   *Extractor
	classifier  *Classifier
	synthesizer *Synthesizer
	executor    *Executor
	validator   *Validator
	explainer   *Explainer
	rand        Rand
	memo        *cache.Cache
}

type processorOptions struct {
	rand     Rand
	cacheTTL time.Duration
}

// Option configures a Processor
type Option func(*processorOptions)

// WithRand sets the source used for confidence scores and timing labels
func WithRand(r Rand) Option {
	return func(o *processorOptions) {
		o.rand = r
	}
}

// WithCacheTTL sets how long interpretations are memoized. Zero disables memoization.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *processorOptions) {
		o.cacheTTL = ttl
	}
}

// NewProcessor wires every pipeline stage to engine and store
func NewProcessor(engine *rules.Engine, store *dataset.Store, opts ...Option) *Processor {
	o := &processorOptions{cacheTTL: DefaultCacheTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.rand == nil {
		o.rand = NewRand(0)
	}

	p := &Processor{
		engine:      engine,
		extractor:   NewExtractor(engine),
		classifier:  NewClassifier(engine),
		synthesizer: NewSynthesizer(engine),
		executor:    NewExecutor(),
		validator:   NewValidator(store, o.rand),
		explainer:   NewExplainer(),
		rand:        o.rand,
	}
	if o.cacheTTL > 0 {
		p.memo = cache.New(o.cacheTTL, 2*o.cacheTTL)
	}

	return p
}

// Process interprets raw and returns the canned result set for the
// selected template together with a synthetic execution time label
func (p *Processor) Process(raw string) (*ProcessResult, error) {
	q, in, err := p.interpret(OpProcess, raw)
	if err != nil {
		return nil, err
	}

	return &ProcessResult{
		OriginalQuery: q.Raw,
		SQLQuery:      in.Query.SQL,
		Results:       p.executor.Execute(in.Query),
		ExecutionTime: fmt.Sprintf("%dms", 50+p.rand.IntN(200)),
	}, nil
}

// Explain interprets raw and describes how the query was derived
func (p *Processor) Explain(raw string) (*ExplainResult, error) {
	q, in, err := p.interpret(OpExplain, raw)
	if err != nil {
		return nil, err
	}

	return &ExplainResult{
		OriginalQuery: q.Raw,
		SQLQuery:      in.Query.SQL,
		Explanation:   p.explainer.Explain(in.Intent, in.Entities),
	}, nil
}

// Validate interprets raw and scores whether it names any known data
func (p *Processor) Validate(raw string) (*ValidationResult, error) {
	_, in, err := p.interpret(OpValidate, raw)
	if err != nil {
		return nil, err
	}

	result := p.validator.Validate(in.Entities)
	metrics.ObserveValidation(result.IsValid)
	return &result, nil
}

// Interpret exposes the deterministic stages for callers that need the
// raw entities, intent and template, such as the CLI
func (p *Processor) Interpret(raw string) (Entities, Intent, SynthesizedQuery, error) {
	_, in, err := p.interpret(OpInterpret, raw)
	if err != nil {
		return Entities{}, "", SynthesizedQuery{}, err
	}
	return in.Entities, in.Intent, in.Query, nil
}

func (p *Processor) interpret(op, raw string) (Query, interpretation, error) {
	q, err := NewQuery(raw)
	if err != nil {
		return Query{}, interpretation{}, err
	}

	in, cached, err := p.lookup(q.Normalized)
	if err != nil {
		logger.Error("interpretation failed", "query_id", q.ID, "operation", op, "error", err)
		return Query{}, interpretation{}, fmt.Errorf("failed to interpret query: %w", err)
	}

	logger.Debug("query interpreted",
		"query_id", q.ID,
		"operation", op,
		"intent", string(in.Intent),
		"template", string(in.Query.Template),
		"tables", in.Entities.Tables,
		"cached", cached,
	)
	metrics.ObserveQuery(op, string(in.Intent), string(in.Query.Template))

	return q, in, nil
}

// lookup returns the memoized interpretation of normalized text or computes it.
// Entries are keyed on the rule generation read before computing, so a
// result derived from a catalog that changed meanwhile is never served.
func (p *Processor) lookup(normalized string) (interpretation, bool, error) {
	key := strconv.FormatUint(p.engine.Generation(), 10) + "|" + normalized
	if p.memo != nil {
		if v, found := p.memo.Get(key); found {
			metrics.InterpretationCacheHits.Inc()
			return v.(interpretation).clone(), true, nil
		}
	}

	start := time.Now()
	in, err := p.compute(normalized)
	if err != nil {
		return interpretation{}, false, err
	}
	metrics.InterpretationDuration.WithLabelValues("compute").Observe(time.Since(start).Seconds())

	if p.memo != nil {
		p.memo.Set(key, in.clone(), cache.DefaultExpiration)
	}
	return in, false, nil
}

func (p *Processor) compute(normalized string) (interpretation, error) {
	entities, err := p.extractor.Extract(normalized)
	if err != nil {
		return interpretation{}, err
	}

	intent, err := p.classifier.Classify(normalized)
	if err != nil {
		return interpretation{}, err
	}

	query, err := p.synthesizer.Synthesize(normalized)
	if err != nil {
		return interpretation{}, err
	}

	return interpretation{Entities: entities, Intent: intent, Query: query}, nil
}

// Flush drops every memoized interpretation. Entries from older rule
// generations are already unreachable; Flush releases their memory.
func (p *Processor) Flush() {
	if p.memo != nil {
		p.memo.Flush()
	}
}
