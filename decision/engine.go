package decision

import (
	"context"
	"fmt"
	"reflect"
)

// TableEngine evaluates decision tables. It holds no mutable state beyond
// the evaluator it delegates cell evaluation to, so a single engine can
// serve any number of concurrent evaluations.
type TableEngine struct {
	evaluator ExpressionEvaluator
}

// NewTableEngine creates a table engine over the given expression evaluator.
func NewTableEngine(evaluator ExpressionEvaluator) *TableEngine {
	return &TableEngine{evaluator: evaluator}
}

// Evaluate walks the table's rules in declaration order, matches each rule
// against the variable context and aggregates the matching rows per the
// table's hit policy. For a fixed table, context and evaluator behavior the
// result is identical across calls, row order included.
func (e *TableEngine) Evaluate(ctx context.Context, table *DecisionTable, variables map[string]any) (*DecisionResult, error) {
	outputs := table.OutputNames()

	var rows []ResultRow
	for i, rule := range table.Rules {
		matched, err := e.ruleMatches(ctx, table, i, rule, variables)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}

		row, err := e.evaluateOutputs(ctx, table, i, rule, outputs, variables)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)

		// FIRST takes the first match and stops scanning further rules.
		if table.HitPolicy == HitPolicyFirst {
			break
		}
	}

	return aggregate(table.HitPolicy, rows)
}

// ruleMatches evaluates the rule's input entries left to right,
// short-circuiting on the first miss. Entry evaluation is assumed free of
// side effects, so column order does not affect observable output. An empty
// entry matches unconditionally.
func (e *TableEngine) ruleMatches(ctx context.Context, table *DecisionTable, ruleIndex int, rule Rule, variables map[string]any) (bool, error) {
	for col, entry := range rule.InputEntries {
		if entry == "" {
			continue
		}
		matched, err := e.evaluator.EvaluateInput(ctx, entry, variables)
		if err != nil {
			return false, &EvaluationError{Rule: ruleIndex, Clause: clauseName(table, col), Err: err}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// evaluateOutputs evaluates every output entry of a matched rule into a
// result row. Output entries are evaluated for matched rules only.
func (e *TableEngine) evaluateOutputs(ctx context.Context, table *DecisionTable, ruleIndex int, rule Rule, outputs []string, variables map[string]any) (ResultRow, error) {
	values := make(map[string]any, len(outputs))
	for col, entry := range rule.OutputEntries {
		if col >= len(outputs) {
			break
		}
		value, err := e.evaluator.EvaluateOutput(ctx, entry, variables)
		if err != nil {
			return ResultRow{}, &EvaluationError{Rule: ruleIndex, Clause: outputs[col], Err: err}
		}
		values[outputs[col]] = value
	}
	return ResultRow{outputs: outputs, values: values}, nil
}

// aggregate applies the hit policy's cardinality contract to the matched
// rows. The matching loop is the same for every policy; only this step
// differs.
func aggregate(policy HitPolicy, rows []ResultRow) (*DecisionResult, error) {
	switch policy {
	case HitPolicyUnique:
		if len(rows) > 1 {
			return nil, &InvalidTableError{
				Policy: policy,
				Reason: fmt.Sprintf("%d rules matched, expected at most one", len(rows)),
			}
		}
		return &DecisionResult{rows: rows}, nil

	case HitPolicyFirst:
		// The scan already stopped at the first match.
		return &DecisionResult{rows: rows}, nil

	case HitPolicyAny:
		if len(rows) > 1 {
			for _, row := range rows[1:] {
				if !reflect.DeepEqual(row.values, rows[0].values) {
					return nil, &InvalidTableError{
						Policy: policy,
						Reason: "matched rules produced conflicting outputs",
					}
				}
			}
			rows = rows[:1]
		}
		return &DecisionResult{rows: rows}, nil

	case HitPolicyCollect, HitPolicyRuleOrder:
		return &DecisionResult{rows: rows}, nil

	default:
		return nil, &InvalidTableError{Policy: policy, Reason: "unsupported hit policy"}
	}
}

func clauseName(table *DecisionTable, col int) string {
	if col < len(table.Inputs) {
		return table.Inputs[col].Name
	}
	return fmt.Sprintf("input %d", col)
}
