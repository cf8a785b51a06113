package decision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefinitionQuery constrains a definition lookup. Zero-valued fields are
// unconstrained; Version 0 means "any version". Result ordering is not
// significant, the resolver sorts by version itself.
type DefinitionQuery struct {
	ID      string
	Key     string
	Version int
	Tenant  TenantFilter
}

// DefinitionStore is the repository of deployed decision definitions the
// resolver queries. Implementations must be safe for concurrent use.
type DefinitionStore interface {
	// Find returns all definitions matching the query, zero or more.
	Find(ctx context.Context, q DefinitionQuery) ([]*DecisionDefinition, error)

	// Deploy stores a new definition, assigning its id and the next version
	// for its key and tenant scope.
	Deploy(ctx context.Context, def *DecisionDefinition) error
}

// InMemoryStore implements DefinitionStore with a mutex-guarded slice.
// Useful for tests and embedded use.
type InMemoryStore struct {
	defs []*DecisionDefinition
	mu   sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory definition store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Find returns all definitions matching the query.
func (s *InMemoryStore) Find(ctx context.Context, q DefinitionQuery) ([]*DecisionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*DecisionDefinition
	for _, def := range s.defs {
		if q.ID != "" && def.ID != q.ID {
			continue
		}
		if q.Key != "" && def.Key != q.Key {
			continue
		}
		if q.Version > 0 && def.Version != q.Version {
			continue
		}
		if !q.Tenant.Matches(def.Tenant) {
			continue
		}
		matches = append(matches, def)
	}
	return matches, nil
}

// Deploy stores a new definition, assigning an id if none is set and the
// next version within its key and tenant scope.
func (s *InMemoryStore) Deploy(ctx context.Context, def *DecisionDefinition) error {
	if def.Key == "" {
		return fmt.Errorf("definition key is required")
	}
	if def.Table == nil {
		return fmt.Errorf("definition has no decision table")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if def.ID == "" {
		def.ID = uuid.New().String()
	}
	for _, existing := range s.defs {
		if existing.ID == def.ID {
			return fmt.Errorf("definition with id %s already exists", def.ID)
		}
	}

	maxVersion := 0
	for _, existing := range s.defs {
		if existing.Key == def.Key && existing.Tenant == def.Tenant && existing.Version > maxVersion {
			maxVersion = existing.Version
		}
	}
	def.Version = maxVersion + 1
	def.CreatedAt = time.Now()

	s.defs = append(s.defs, def)
	return nil
}
