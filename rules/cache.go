package rules

import "time"

// RulesCache caches the ordered active rules of each rule set.
// This allows swapping between in-memory, Redis, or other caching implementations
type RulesCache interface {
	// Get retrieves cached rules for a set, returns nil on miss or expiry
	Get(set RuleSet) []*Rule

	// Set stores the ordered rules of a set if generation is still current.
	// Readers pass the generation observed before loading rules from the
	// store, so a list loaded across an Invalidate is dropped.
	Set(set RuleSet, rules []*Rule, generation uint64) bool

	// Generation returns the current invalidation generation
	Generation() uint64

	// Invalidate clears every set and advances the generation
	Invalidate()

	// IsValid returns true if the set has valid cached data
	IsValid(set RuleSet) bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultCacheConfig returns the rule cache defaults: no TTL, mutations invalidate
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0,
	}
}
