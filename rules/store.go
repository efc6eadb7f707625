package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrRuleExists   = errors.New("rule already exists")
)

// RuleStore manages rule persistence and retrieval
type RuleStore interface {
	// Add a new rule
	Add(rule *Rule) error

	// Get a rule by ID
	Get(id string) (*Rule, error)

	// ListActive returns the active rules of one set ordered by Position
	ListActive(set RuleSet) ([]*Rule, error)

	// ListAll returns every rule ordered by set, then Position
	ListAll() ([]*Rule, error)

	// Update an existing rule
	Update(rule *Rule) error

	// Delete a rule
	Delete(id string) error
}

// InMemoryRuleStore implements RuleStore using an in-memory map.
// Thread-safe with RWMutex.
type InMemoryRuleStore struct {
	rules map[string]*Rule
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates a new in-memory rule store
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*Rule),
	}
}

// Add adds a new rule to the store, stamping CreatedAt and UpdatedAt
func (s *InMemoryRuleStore) Add(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("rule with ID %s: %w", rule.ID, ErrRuleExists)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules[rule.ID] = rule
	return nil
}

// Get retrieves a rule by ID
func (s *InMemoryRuleStore) Get(id string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule with ID %s: %w", id, ErrRuleNotFound)
	}
	return rule, nil
}

// ListActive returns the active rules of a set in evaluation order
func (s *InMemoryRuleStore) ListActive(set RuleSet) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*Rule
	for _, rule := range s.rules {
		if rule.Active && rule.Set == set {
			active = append(active, rule)
		}
	}
	sortRules(active)
	return active, nil
}

// ListAll returns every rule, active or not
func (s *InMemoryRuleStore) ListAll() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		all = append(all, rule)
	}
	sortRules(all)
	return all, nil
}

// Update updates an existing rule, preserving its original CreatedAt
func (s *InMemoryRuleStore) Update(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists {
		return fmt.Errorf("rule with ID %s: %w", rule.ID, ErrRuleNotFound)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.ID] = rule
	return nil
}

// Delete removes a rule from the store
func (s *InMemoryRuleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("rule with ID %s: %w", id, ErrRuleNotFound)
	}

	delete(s.rules, id)
	return nil
}

// sortRules orders by set (KnownSets order), then Position, then ID
func sortRules(list []*Rule) {
	setIndex := make(map[RuleSet]int, len(KnownSets))
	for i, s := range KnownSets {
		setIndex[s] = i
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Set != b.Set {
			return setIndex[a.Set] < setIndex[b.Set]
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// Seed adds every rule from defaults that the store does not already hold.
// Existing rules are left untouched so operator edits survive restarts.
func Seed(store RuleStore, defaults []*Rule) (int, error) {
	added := 0
	for _, rule := range defaults {
		_, err := store.Get(rule.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrRuleNotFound) {
			return added, fmt.Errorf("failed to check rule %s: %w", rule.ID, err)
		}

		r := *rule
		if err := store.Add(&r); err != nil {
			return added, fmt.Errorf("failed to seed rule %s: %w", rule.ID, err)
		}
		added++
	}
	return added, nil
}
