package rules

import (
	"sync"
	"time"
)

type cacheEntry struct {
	rules    []*Rule
	cachedAt time.Time
}

// InMemoryRulesCache is a simple in-memory implementation of RulesCache
// Thread-safe for concurrent access
type InMemoryRulesCache struct {
	entries    map[RuleSet]cacheEntry
	config     CacheConfig
	generation uint64
	mu         sync.RWMutex
}

// NewInMemoryRulesCache creates a new in-memory rules cache
func NewInMemoryRulesCache(config CacheConfig) *InMemoryRulesCache {
	return &InMemoryRulesCache{
		entries: make(map[RuleSet]cacheEntry),
		config:  config,
	}
}

// Get retrieves cached rules for a set
// Returns nil if the set was never cached, was invalidated or has expired
func (c *InMemoryRulesCache) Get(set RuleSet) []*Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[set]
	if !ok || c.expired(entry) {
		return nil
	}

	// Return copy to prevent external modifications
	rulesCopy := make([]*Rule, len(entry.rules))
	copy(rulesCopy, entry.rules)
	return rulesCopy
}

// Set stores rules for a set. The write is dropped when the cache was
// invalidated after generation was read.
func (c *InMemoryRulesCache) Set(set RuleSet, rules []*Rule, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}

	stored := make([]*Rule, len(rules))
	copy(stored, rules)
	c.entries[set] = cacheEntry{rules: stored, cachedAt: time.Now()}
	return true
}

// Generation returns the number of invalidations so far
func (c *InMemoryRulesCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.generation
}

// Invalidate clears the cache
func (c *InMemoryRulesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[RuleSet]cacheEntry)
	c.generation++
}

// IsValid returns true if the set has cached, unexpired data
func (c *InMemoryRulesCache) IsValid(set RuleSet) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[set]
	return ok && !c.expired(entry)
}

func (c *InMemoryRulesCache) expired(entry cacheEntry) bool {
	return c.config.TTL > 0 && time.Since(entry.cachedAt) > c.config.TTL
}
