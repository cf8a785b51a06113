package decision

import "time"

// DefinitionCache caches resolved definitions per lookup query, sparing the
// store a round trip on hot decisions. Implementations may be in-memory,
// Redis-backed, or anything else honoring the invalidation contract.
type DefinitionCache interface {
	// Get retrieves the cached resolution for a query, nil on miss or expiry.
	Get(q DefinitionQuery) *DecisionDefinition

	// Set stores a resolution for a query.
	Set(q DefinitionQuery, def *DecisionDefinition)

	// Invalidate clears the cache. Called after every deployment: a new
	// version changes which definition "latest" resolves to.
	Invalidate()
}

// CacheConfig holds configuration for cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Set to 0 for no expiration (invalidation on deployment only).
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for definition caching.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0, // No TTL - only invalidate on deployments
	}
}
