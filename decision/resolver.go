package decision

import (
	"context"
	"sort"
)

// Resolver turns an evaluation request into exactly one deployed definition.
// It holds no mutable state and is safe to call concurrently; every call
// reflects the store's contents at that moment.
type Resolver struct {
	store DefinitionStore
}

// NewResolver creates a resolver over the given definition store.
func NewResolver(store DefinitionStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the single definition the request identifies, or a typed
// error: InvalidRequestError for malformed requests, NotFoundError when
// nothing matches, AmbiguousTenantError when a latest-version lookup spans
// multiple tenants, ResolutionError when the store fails.
func (r *Resolver) Resolve(ctx context.Context, req EvaluationRequest) (*DecisionDefinition, error) {
	if req.DecisionID != "" {
		return r.resolveByID(ctx, req)
	}
	if req.DecisionKey != "" {
		return r.resolveByKey(ctx, req)
	}
	return nil, &InvalidRequestError{Reason: "either a decision id or a decision key is required"}
}

func (r *Resolver) resolveByID(ctx context.Context, req EvaluationRequest) (*DecisionDefinition, error) {
	// The id already pins the definition, tenant scope included. An explicit
	// tenant constraint is checked before touching the store: it is a usage
	// error whether or not the definition exists.
	if req.Tenant.Constrained() {
		return nil, &InvalidRequestError{Reason: "cannot specify a tenant-id when evaluating a decision by id"}
	}

	defs, err := r.store.Find(ctx, DefinitionQuery{ID: req.DecisionID})
	if err != nil {
		return nil, &ResolutionError{Err: err}
	}
	if len(defs) == 0 {
		return nil, &NotFoundError{ID: req.DecisionID}
	}
	return defs[0], nil
}

func (r *Resolver) resolveByKey(ctx context.Context, req EvaluationRequest) (*DecisionDefinition, error) {
	defs, err := r.store.Find(ctx, DefinitionQuery{
		Key:     req.DecisionKey,
		Version: req.Version,
		Tenant:  req.Tenant,
	})
	if err != nil {
		return nil, &ResolutionError{Err: err}
	}
	if len(defs) == 0 {
		return nil, r.notFound(req)
	}

	if req.Version > 0 {
		// Exact version within the tenant-filtered set. More than one row can
		// only mean an unconstrained filter spanning tenants.
		if len(defs) > 1 && !req.Tenant.Constrained() {
			if distinctTenants(defs) > 1 {
				return nil, &AmbiguousTenantError{Key: req.DecisionKey}
			}
		}
		return defs[0], nil
	}

	// Latest version wins, but only once the tenant is fixed or uniquely
	// inferred. Which row wins between two rows sharing the same maximum
	// version within one tenant is unspecified.
	if !req.Tenant.Constrained() && distinctTenants(defs) > 1 {
		return nil, &AmbiguousTenantError{Key: req.DecisionKey}
	}

	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Version > defs[j].Version
	})
	return defs[0], nil
}

func (r *Resolver) notFound(req EvaluationRequest) error {
	nf := &NotFoundError{Key: req.DecisionKey, Version: req.Version}
	if tenantID, ok := req.Tenant.TenantID(); ok {
		nf.Tenant = NewTenant(tenantID)
	}
	return nf
}

func distinctTenants(defs []*DecisionDefinition) int {
	seen := make(map[Tenant]struct{}, len(defs))
	for _, def := range defs {
		seen[def.Tenant] = struct{}{}
	}
	return len(seen)
}
