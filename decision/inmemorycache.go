package decision

import (
	"sync"
	"time"
)

// InMemoryDefinitionCache is a simple in-memory implementation of
// DefinitionCache. Thread-safe for concurrent access.
type InMemoryDefinitionCache struct {
	entries  map[DefinitionQuery]*DecisionDefinition
	cachedAt time.Time
	config   CacheConfig
	mu       sync.RWMutex
}

// NewInMemoryDefinitionCache creates a new in-memory definition cache.
func NewInMemoryDefinitionCache(config CacheConfig) *InMemoryDefinitionCache {
	return &InMemoryDefinitionCache{
		entries: make(map[DefinitionQuery]*DecisionDefinition),
		config:  config,
	}
}

// Get retrieves the cached resolution for a query.
// Returns nil on cache miss or expiry.
func (c *InMemoryDefinitionCache) Get(q DefinitionQuery) *DecisionDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL {
		return nil
	}
	return c.entries[q]
}

// Set stores a resolution for a query. Definitions are immutable once
// resolved, so the cache can hand out the same pointer to every caller.
func (c *InMemoryDefinitionCache) Set(q DefinitionQuery, def *DecisionDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[q] = def
	c.cachedAt = time.Now()
}

// Invalidate clears the cache.
func (c *InMemoryDefinitionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[DefinitionQuery]*DecisionDefinition)
}
