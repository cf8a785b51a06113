package decision

type tenantMode int

const (
	tenantModeAny tenantMode = iota
	tenantModeNone
	tenantModeExact
)

// TenantFilter selects which tenant scopes a key-based lookup may see.
// The zero value matches any tenant, including the tenant-less scope.
type TenantFilter struct {
	mode   tenantMode
	tenant string
}

// AnyTenant matches definitions of every tenant, including tenant-less ones.
func AnyTenant() TenantFilter {
	return TenantFilter{mode: tenantModeAny}
}

// WithoutTenant matches only definitions that have no tenant scope.
func WithoutTenant() TenantFilter {
	return TenantFilter{mode: tenantModeNone}
}

// WithTenant matches only definitions scoped to the given tenant.
func WithTenant(tenantID string) TenantFilter {
	return TenantFilter{mode: tenantModeExact, tenant: tenantID}
}

// Constrained reports whether the caller narrowed the lookup to a specific
// tenant scope. Combining a constrained filter with an id lookup is a usage
// error.
func (f TenantFilter) Constrained() bool {
	return f.mode != tenantModeAny
}

// TenantID returns the exact tenant the filter selects, if any.
func (f TenantFilter) TenantID() (string, bool) {
	return f.tenant, f.mode == tenantModeExact
}

// Matches reports whether a definition in the given tenant scope passes the
// filter.
func (f TenantFilter) Matches(t Tenant) bool {
	switch f.mode {
	case tenantModeNone:
		return !t.Valid
	case tenantModeExact:
		return t.Valid && t.ID == f.tenant
	default:
		return true
	}
}

// EvaluationRequest identifies one decision and carries the variable context
// to evaluate it against. Exactly one of DecisionID and DecisionKey is set.
// Version 0 means "latest version". Requests are immutable values; a request
// and its result exist only for the duration of one evaluation call.
type EvaluationRequest struct {
	DecisionID  string
	DecisionKey string
	Version     int
	Tenant      TenantFilter
	Variables   map[string]any
}

// ByID builds a request that identifies a decision by its unique id.
func ByID(decisionID string, variables map[string]any) EvaluationRequest {
	return EvaluationRequest{DecisionID: decisionID, Variables: variables}
}

// ByKey builds a request that identifies a decision by its logical key,
// resolving the latest version across any tenant unless narrowed further.
func ByKey(decisionKey string, variables map[string]any) EvaluationRequest {
	return EvaluationRequest{DecisionKey: decisionKey, Variables: variables}
}

// WithVersion narrows a key-based request to an exact version.
func (r EvaluationRequest) WithVersion(version int) EvaluationRequest {
	r.Version = version
	return r
}

// WithTenantFilter narrows the request to a tenant scope.
func (r EvaluationRequest) WithTenantFilter(f TenantFilter) EvaluationRequest {
	r.Tenant = f
	return r
}
