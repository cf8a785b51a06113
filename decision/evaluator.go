package decision

import "context"

// ExpressionEvaluator evaluates single decision-table cells against a
// variable context. The table engine treats it as a black box invoked per
// cell; implementations must be reentrant. Cancellation of slow evaluations
// is the evaluator's own concern, surfaced through its error return.
type ExpressionEvaluator interface {
	// EvaluateInput evaluates an input entry and reports whether it matches.
	EvaluateInput(ctx context.Context, expression string, variables map[string]any) (bool, error)

	// EvaluateOutput evaluates an output entry to its produced value.
	EvaluateOutput(ctx context.Context, expression string, variables map[string]any) (any, error)
}
