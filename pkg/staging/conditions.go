package staging

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// ConditionValidator compiles and evaluates the optional CEL conditions an
// approver attaches to an intent. Expressions see three variables:
//
//   - action: the staged action's catalogue fields
//   - agent: the frozen agent's identity fields
//   - context: free-form activation data supplied at evaluation time
//
// Every condition must type-check to bool. Compiled programs are cached by
// expression text.
type ConditionValidator struct {
	env      *cel.Env
	mu       sync.RWMutex
	prgCache map[string]cel.Program
}

// NewConditionValidator builds the CEL environment for approval conditions.
func NewConditionValidator() (*ConditionValidator, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("agent", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("context", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &ConditionValidator{
		env:      env,
		prgCache: make(map[string]cel.Program),
	}, nil
}

// Validate compiles the expression and rejects anything that does not
// type-check to a boolean.
func (v *ConditionValidator) Validate(expr string) error {
	_, err := v.program(expr)
	return err
}

// Evaluate runs the expression against an activation map. Missing activation
// keys default to empty maps so that conditions over absent context fail
// rather than error.
func (v *ConditionValidator) Evaluate(expr string, activation map[string]any) (bool, error) {
	prg, err := v.program(expr)
	if err != nil {
		return false, err
	}

	input := map[string]any{
		"action":  map[string]any{},
		"agent":   map[string]any{},
		"context": map[string]any{},
	}
	for k, val := range activation {
		input[k] = val
	}

	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not produce a boolean", expr)
	}
	return result, nil
}

func (v *ConditionValidator) program(expr string) (cel.Program, error) {
	v.mu.RLock()
	prg, hit := v.prgCache[expr]
	v.mu.RUnlock()
	if hit {
		return prg, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if prg, hit = v.prgCache[expr]; hit {
		return prg, nil
	}

	ast, issues := v.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile condition: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("condition %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prg, err := v.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("build condition program: %w", err)
	}
	v.prgCache[expr] = prg
	return prg, nil
}
