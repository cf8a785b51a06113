package decision

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// celCostLimit bounds expression evaluation cost to prevent resource
// exhaustion from malicious or runaway expressions.
const celCostLimit = 1_000_000

// CELEvaluator implements ExpressionEvaluator on top of cel-go. Compiled
// programs are cached per expression and variable signature behind an
// RWMutex, so repeated evaluations of the same table skip compilation.
// Safe for concurrent use.
type CELEvaluator struct {
	programs map[string]cel.Program
	mu       sync.RWMutex
}

// NewCELEvaluator creates an evaluator with an empty program cache.
func NewCELEvaluator() *CELEvaluator {
	return &CELEvaluator{programs: make(map[string]cel.Program)}
}

// EvaluateInput evaluates an input entry against the variable context. A
// non-boolean result is treated as a non-match rather than an error.
func (e *CELEvaluator) EvaluateInput(ctx context.Context, expression string, variables map[string]any) (bool, error) {
	out, err := e.eval(expression, variables)
	if err != nil {
		return false, err
	}
	matched, ok := out.(bool)
	return ok && matched, nil
}

// EvaluateOutput evaluates an output entry to its produced value.
func (e *CELEvaluator) EvaluateOutput(ctx context.Context, expression string, variables map[string]any) (any, error) {
	return e.eval(expression, variables)
}

func (e *CELEvaluator) eval(expression string, variables map[string]any) (any, error) {
	prog, err := e.program(expression, variables)
	if err != nil {
		return nil, err
	}

	out, _, err := prog.Eval(variables)
	if err != nil {
		return nil, fmt.Errorf("evaluation error: %w", err)
	}
	return out.Value(), nil
}

// program returns the compiled program for the expression, compiling it with
// the context's variable names declared as dynamic types on first use. The
// cache key includes the sorted variable names: the same expression may
// legitimately be evaluated under contexts with different shapes.
func (e *CELEvaluator) program(expression string, variables map[string]any) (cel.Program, error) {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)
	key := expression + "\x00" + strings.Join(names, "\x00")

	e.mu.RLock()
	prog, exists := e.programs[key]
	e.mu.RUnlock()
	if exists {
		return prog, nil
	}

	opts := make([]cel.EnvOption, 0, len(names))
	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err = env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	e.mu.Lock()
	e.programs[key] = prog
	e.mu.Unlock()

	return prog, nil
}
