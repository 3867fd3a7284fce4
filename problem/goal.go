package problem

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// goalCondition is a compiled CEL predicate over the manifest.
type goalCondition struct {
	expr string
	prg  cel.Program
}

func compileGoalCondition(expr string) (*goalCondition, error) {
	env, err := cel.NewEnv(
		cel.Variable("stack", cel.ListType(cel.StringType)),
		cel.Variable("targets", cel.ListType(cel.StringType)),
		cel.Variable("manifest", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal condition environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("failed to compile goal condition %q: %w", expr, iss.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("goal condition %q must evaluate to bool, got %s", expr, t)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build goal condition %q: %w", expr, err)
	}
	return &goalCondition{expr: expr, prg: prg}, nil
}

func (g *goalCondition) eval(stack, targets []string, m Manifest) (bool, error) {
	if stack == nil {
		stack = []string{}
	}
	if targets == nil {
		targets = []string{}
	}
	out, _, err := g.prg.Eval(map[string]any{
		"stack":    stack,
		"targets":  targets,
		"manifest": m.Map(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate goal condition %q: %w", g.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("goal condition %q returned %T, want bool", g.expr, out.Value())
	}
	return b, nil
}
