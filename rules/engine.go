package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/liamcoop/nlquery/internal/logger"
)

// TextVariable is the CEL variable every rule expression is evaluated against
const TextVariable = "text"

// costLimit bounds a single rule evaluation so a pathological expression
// cannot stall a request
const costLimit = 1000000

// Engine manages the CEL environment and rule compilation/evaluation.
// Safe for concurrent evaluation; compilation takes the write lock.
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache             // ordered active rules per set
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

// NewEnv creates the CEL environment shared by every rule: a single
// string variable holding the normalized query text
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(TextVariable, cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine creates a new rules engine with the default CEL environment
// and compiles every active rule held by store
func NewEngine(store RuleStore) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	return NewEngineWithEnv(env, store)
}

// NewEngineWithEnv creates a new rules engine with a custom CEL environment
func NewEngineWithEnv(env *cel.Env, store RuleStore) (*Engine, error) {
	en := &Engine{
		env:      env,
		store:    store,
		cache:    NewInMemoryRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return en, nil
}

// Store returns the rule store backing the engine
func (en *Engine) Store() RuleStore {
	return en.store
}

// CompileRule compiles a single rule expression to a CEL program.
// The expression must type-check to bool.
func (en *Engine) CompileRule(ruleID, expression string) error {
	prog, err := en.compile(expression)
	if err != nil {
		return err
	}

	en.install(ruleID, prog)
	return nil
}

func (en *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", ast.OutputType())
	}

	prog, err := en.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return prog, nil
}

func (en *Engine) install(ruleID string, prog cel.Program) {
	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()
}

// Generation changes every time the rule catalog is mutated through the
// engine. Callers memoizing evaluation results key them on it.
func (en *Engine) Generation() uint64 {
	return en.cache.Generation()
}

// CompileAllRules compiles all active rules from the store and
// populates the cache with each set's ordered rule list
func (en *Engine) CompileAllRules() error {
	gen := en.cache.Generation()
	for _, set := range KnownSets {
		rules, err := en.store.ListActive(set)
		if err != nil {
			return err
		}

		for _, rule := range rules {
			if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
				return fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
			}
		}

		en.cache.Set(set, rules, gen)
	}

	return nil
}

// AddRule validates, compiles and stores a new rule.
// The program is installed only once the store accepts the rule.
func (en *Engine) AddRule(r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	prog, err := en.compile(r.Expression)
	if err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		return err
	}

	en.install(r.ID, prog)
	en.cache.Invalidate()

	return nil
}

// UpdateRule validates and recompiles an existing rule. A failed store
// update leaves the previous program in place.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	prog, err := en.compile(r.Expression)
	if err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.install(r.ID, prog)
	en.cache.Invalidate()

	return nil
}

// DeleteRule removes a rule from the store and compiled programs
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()

	return nil
}

// Evaluate evaluates a single rule against text
func (en *Engine) Evaluate(ruleID, text string) (*EvaluationResult, error) {
	rule, err := en.store.Get(ruleID)
	if err != nil {
		return nil, err
	}

	result := en.evaluate(rule, text)
	return result, result.Error
}

// FirstMatch evaluates the active rules of set in order and returns the
// first one that matches, or nil when none does
func (en *Engine) FirstMatch(set RuleSet, text string) (*EvaluationResult, error) {
	rules, err := en.activeRules(set)
	if err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if result := en.evaluate(rule, text); result.Matched {
			return result, nil
		}
	}

	return nil, nil
}

// AllMatches evaluates every active rule of set and returns the matching
// ones in evaluation order. Rules that fail to evaluate are skipped.
func (en *Engine) AllMatches(set RuleSet, text string) ([]*EvaluationResult, error) {
	rules, err := en.activeRules(set)
	if err != nil {
		return nil, err
	}

	matches := make([]*EvaluationResult, 0, len(rules))
	for _, rule := range rules {
		if result := en.evaluate(rule, text); result.Matched {
			matches = append(matches, result)
		}
	}

	return matches, nil
}

// activeRules returns the ordered active rules of a set, reading through the cache
func (en *Engine) activeRules(set RuleSet) ([]*Rule, error) {
	if rules := en.cache.Get(set); rules != nil {
		return rules, nil
	}

	// Read before listing so a mutation landing in between discards our copy
	gen := en.cache.Generation()
	rules, err := en.store.ListActive(set)
	if err != nil {
		return nil, err
	}

	// Rules added directly to the store bypass AddRule; compile them lazily
	for _, rule := range rules {
		en.mu.RLock()
		_, compiled := en.programs[rule.ID]
		en.mu.RUnlock()
		if compiled {
			continue
		}
		if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(set, rules, gen)
	return rules, nil
}

func (en *Engine) evaluate(rule *Rule, text string) *EvaluationResult {
	result := &EvaluationResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Result:   rule.Result,
	}

	en.mu.RLock()
	prog, exists := en.programs[rule.ID]
	en.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("rule %s is not compiled", rule.ID)
		logger.Warn("rule not compiled", "rule_id", rule.ID)
		return result
	}

	out, _, err := prog.Eval(map[string]any{TextVariable: text})
	if err != nil {
		result.Error = err
		logger.Warn("rule evaluation failed", "rule_id", rule.ID, "error", err)
		return result
	}

	// Non-boolean results are treated as no match
	if matched, ok := out.Value().(bool); ok {
		result.Matched = matched
	}

	return result
}
