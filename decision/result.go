package decision

// ResultRow is the evaluated output of one matched rule: a mapping from
// output-clause name to value, restricted to the table's declared outputs.
type ResultRow struct {
	outputs []string
	values  map[string]any
}

// Get returns the value of the named output clause. Accessing a name that is
// not a declared output clause fails with UnknownOutputError, even if the
// row happens to carry no value for a declared one.
func (r ResultRow) Get(name string) (any, error) {
	for _, out := range r.outputs {
		if out == name {
			return r.values[name], nil
		}
	}
	return nil, &UnknownOutputError{Name: name}
}

// FirstEntry returns the value of the first declared output clause.
func (r ResultRow) FirstEntry() any {
	if len(r.outputs) == 0 {
		return nil
	}
	return r.values[r.outputs[0]]
}

// Values returns a copy of the row's name-to-value mapping.
func (r ResultRow) Values() map[string]any {
	values := make(map[string]any, len(r.values))
	for name, value := range r.values {
		values[name] = value
	}
	return values
}

// DecisionResult is the ordered collection of output rows produced by one
// table evaluation. Row order follows rule declaration order. A result with
// zero rows is valid; the single-result accessor enforces cardinality.
type DecisionResult struct {
	rows []ResultRow
}

// Size returns the number of result rows.
func (d *DecisionResult) Size() int {
	return len(d.rows)
}

// Rows returns the result rows in rule declaration order.
func (d *DecisionResult) Rows() []ResultRow {
	return d.rows
}

// SingleResult returns the only row of the result. It fails with
// NoMatchingRuleError on an empty result and MultipleResultsError when more
// than one rule matched.
func (d *DecisionResult) SingleResult() (ResultRow, error) {
	switch len(d.rows) {
	case 0:
		return ResultRow{}, &NoMatchingRuleError{}
	case 1:
		return d.rows[0], nil
	default:
		return ResultRow{}, &MultipleResultsError{Count: len(d.rows)}
	}
}
