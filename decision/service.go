package decision

import (
	"context"
	"time"

	"github.com/ruleweave/decisions/internal/logger"
)

// Service is the public surface of the evaluation core: it composes the
// resolver and the table engine behind the two identifier modes and caches
// resolved definitions. Stateless between calls; safe for concurrent use.
type Service struct {
	store    DefinitionStore
	resolver *Resolver
	engine   *TableEngine
	cache    DefinitionCache
}

// NewService wires a service over the given store and expression evaluator.
func NewService(store DefinitionStore, evaluator ExpressionEvaluator) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		engine:   NewTableEngine(evaluator),
		cache:    NewInMemoryDefinitionCache(DefaultCacheConfig()),
	}
}

// ResolveAndEvaluate resolves the request to exactly one definition and
// evaluates its decision table against the request's variable context.
func (s *Service) ResolveAndEvaluate(ctx context.Context, req EvaluationRequest) (*DecisionResult, error) {
	def, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.engine.Evaluate(ctx, def.Table, req.Variables)
	if err != nil {
		logger.Error("decision evaluation failed",
			"decisionId", def.ID, "key", def.Key, "error", err)
		return nil, err
	}

	logger.Debug("decision evaluated",
		"decisionId", def.ID,
		"key", def.Key,
		"version", def.Version,
		"tenantId", def.Tenant.String(),
		"rows", result.Size(),
		"duration", time.Since(start).String())
	return result, nil
}

// EvaluateByID evaluates the decision with the given unique id.
func (s *Service) EvaluateByID(ctx context.Context, decisionID string, variables map[string]any) (*DecisionResult, error) {
	return s.ResolveAndEvaluate(ctx, ByID(decisionID, variables))
}

// EvaluateByKey evaluates the latest version of the decision with the given
// key within the tenant scope. Version 0 means latest.
func (s *Service) EvaluateByKey(ctx context.Context, decisionKey string, tenant TenantFilter, version int, variables map[string]any) (*DecisionResult, error) {
	req := ByKey(decisionKey, variables).WithTenantFilter(tenant).WithVersion(version)
	return s.ResolveAndEvaluate(ctx, req)
}

// Deploy stores a new definition and invalidates cached resolutions: a new
// version changes which definition "latest" resolves to.
func (s *Service) Deploy(ctx context.Context, def *DecisionDefinition) error {
	if err := s.store.Deploy(ctx, def); err != nil {
		return err
	}
	s.cache.Invalidate()

	logger.Info("decision definition deployed",
		"decisionId", def.ID,
		"key", def.Key,
		"version", def.Version,
		"tenantId", def.Tenant.String())
	return nil
}

// resolve answers from the cache when it can; successful resolutions are
// cached under the request-derived query. Failed resolutions are never
// cached, so ambiguity and not-found outcomes always reflect the store.
func (s *Service) resolve(ctx context.Context, req EvaluationRequest) (*DecisionDefinition, error) {
	q := DefinitionQuery{
		ID:      req.DecisionID,
		Key:     req.DecisionKey,
		Version: req.Version,
		Tenant:  req.Tenant,
	}

	if def := s.cache.Get(q); def != nil {
		return def, nil
	}

	def, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	s.cache.Set(q, def)
	return def, nil
}
