package decision

import "fmt"

// InvalidRequestError signals a request that violates the lookup contract,
// e.g. an id lookup combined with an explicit tenant constraint. The caller
// must fix the request; retrying is pointless.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// NotFoundError signals that no deployed definition matches the lookup.
type NotFoundError struct {
	ID      string
	Key     string
	Version int
	Tenant  Tenant
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("no decision definition deployed with id '%s'", e.ID)
	}
	msg := fmt.Sprintf("no decision definition deployed with key '%s'", e.Key)
	if e.Version > 0 {
		msg += fmt.Sprintf(" and version %d", e.Version)
	}
	if e.Tenant.Valid {
		msg += fmt.Sprintf(" and tenant-id '%s'", e.Tenant.ID)
	}
	return msg
}

// AmbiguousTenantError signals that a key-based, version-unspecified lookup
// without a tenant filter matched definitions across more than one tenant.
type AmbiguousTenantError struct {
	Key string
}

func (e *AmbiguousTenantError) Error() string {
	return fmt.Sprintf("decision definition with key '%s' is deployed for multiple tenants; specify a tenant-id", e.Key)
}

// InvalidTableError signals a modeling defect in the stored decision table,
// e.g. a UNIQUE hit policy matched by more than one rule.
type InvalidTableError struct {
	Policy HitPolicy
	Reason string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid decision table (hit policy %s): %s", e.Policy, e.Reason)
}

// NoMatchingRuleError is returned by the single-result accessor when the
// evaluation matched zero rules. An empty result itself is a valid outcome.
type NoMatchingRuleError struct{}

func (e *NoMatchingRuleError) Error() string {
	return "decision evaluation matched no rule"
}

// MultipleResultsError is returned by the single-result accessor when the
// evaluation produced more than one result row.
type MultipleResultsError struct {
	Count int
}

func (e *MultipleResultsError) Error() string {
	return fmt.Sprintf("decision evaluation produced %d results, expected exactly one", e.Count)
}

// UnknownOutputError signals access to a result entry by a name that is not
// a declared output clause of the evaluated table.
type UnknownOutputError struct {
	Name string
}

func (e *UnknownOutputError) Error() string {
	return fmt.Sprintf("no output clause with name '%s'", e.Name)
}

// EvaluationError wraps a failure raised by the expression evaluator while
// processing one cell, attaching the rule and clause it came from. Rule is
// the zero-based position of the rule in the table.
type EvaluationError struct {
	Rule   int
	Clause string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation of rule %d, clause '%s' failed: %v", e.Rule, e.Clause, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// ResolutionError wraps a failure raised by the definition store during
// resolution.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("decision definition lookup failed: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
