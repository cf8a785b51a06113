package decision

import "time"

// Tenant identifies the isolation scope of a decision definition.
// The zero value means the definition is not scoped to any tenant.
type Tenant struct {
	ID    string
	Valid bool
}

// NewTenant returns a tenant scope for the given id.
func NewTenant(id string) Tenant {
	return Tenant{ID: id, Valid: true}
}

// String returns the tenant id, or an empty string for the tenant-less scope.
func (t Tenant) String() string {
	if !t.Valid {
		return ""
	}
	return t.ID
}

// HitPolicy controls how multiple matching rules are reconciled into a result.
type HitPolicy string

const (
	HitPolicyUnique    HitPolicy = "UNIQUE"
	HitPolicyFirst     HitPolicy = "FIRST"
	HitPolicyAny       HitPolicy = "ANY"
	HitPolicyCollect   HitPolicy = "COLLECT"
	HitPolicyRuleOrder HitPolicy = "RULE ORDER"
)

// Collecting reports whether the policy aggregates every matching rule
// rather than expecting at most one.
func (p HitPolicy) Collecting() bool {
	return p == HitPolicyCollect || p == HitPolicyRuleOrder
}

// InputClause is a named input column of a decision table.
type InputClause struct {
	Name  string
	Label string
}

// OutputClause is a named output column of a decision table.
type OutputClause struct {
	Name  string
	Label string
}

// Rule is one row of a decision table. InputEntries and OutputEntries are
// positional: one expression per input/output clause. An empty input entry
// matches unconditionally. Rules have no identity beyond their position.
type Rule struct {
	InputEntries  []string
	OutputEntries []string
}

// DecisionTable holds the ordered rules of a decision together with its
// clause declarations and hit policy. Rule order is significant and preserved
// from declaration. Tables are read-only once a definition is resolved.
type DecisionTable struct {
	HitPolicy HitPolicy
	Inputs    []InputClause
	Outputs   []OutputClause
	Rules     []Rule
}

// OutputNames returns the declared output clause names in declaration order.
func (t *DecisionTable) OutputNames() []string {
	names := make([]string, len(t.Outputs))
	for i, out := range t.Outputs {
		names[i] = out.Name
	}
	return names
}

// DecisionDefinition is a named, versioned, optionally tenant-scoped unit
// containing one decision table. Definitions are created by deployment and
// are immutable once resolved; the evaluation core only holds a transient
// reference for the duration of one call.
type DecisionDefinition struct {
	ID        string
	Key       string
	Name      string
	Version   int
	Tenant    Tenant
	Table     *DecisionTable
	CreatedAt time.Time
}
