package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Condition environment: `signals` is the extracted query signals map,
// `state` the current lifecycle state. Programs carry a cost limit so a
// pathological bundle cannot stall request handling.
var (
	envOnce sync.Once
	celEnv  *cel.Env
	envErr  error
)

func conditionEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		celEnv, envErr = cel.NewEnv(
			cel.Variable("signals", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("state", cel.StringType),
		)
	})
	return celEnv, envErr
}

func compileCondition(expr string) (cel.Program, error) {
	env, err := conditionEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("condition must evaluate to bool, got %s", ast.OutputType())
	}
	return env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
}

// EvalCondition runs a compiled condition against a signals map and a
// lifecycle state. A non-bool result is an error; callers treat rule
// evaluation errors as fail-closed (the rule does not match).
func (r *CompiledRule) EvalCondition(signals map[string]any, state string) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"signals": signals,
		"state":   state,
	})
	if err != nil {
		return false, fmt.Errorf("eval rule %s: %w", r.ID, err)
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval rule %s: result not bool", r.ID)
	}
	return v, nil
}
