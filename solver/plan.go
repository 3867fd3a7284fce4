package solver

import (
	"encoding/json"
	"strings"
)

// ActionStep is one grounded action as the solver printed it,
// e.g. "MOVE C1 C2 PEG3".
type ActionStep string

func (a ActionStep) String() string { return string(a) }

// Name returns the action name, the first field of the step.
func (a ActionStep) Name() string {
	f := strings.Fields(string(a))
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Args returns the action arguments, every field after the name.
func (a ActionStep) Args() []string {
	f := strings.Fields(string(a))
	if len(f) < 2 {
		return nil
	}
	return f[1:]
}

// Plan is an ordered sequence of actions in execution order.
// A Plan is immutable; accessors return copies.
type Plan struct {
	steps []ActionStep
}

// NewPlan builds a Plan from action tokens, keeping their order.
func NewPlan(actions []string) Plan {
	steps := make([]ActionStep, len(actions))
	for i, a := range actions {
		steps[i] = ActionStep(a)
	}
	return Plan{steps: steps}
}

// Len returns the number of steps.
func (p Plan) Len() int { return len(p.steps) }

// At returns step i. It panics when i is out of range, like indexing.
func (p Plan) At(i int) ActionStep { return p.steps[i] }

// Steps returns a copy of the steps that the caller may modify.
func (p Plan) Steps() []ActionStep {
	out := make([]ActionStep, len(p.steps))
	copy(out, p.steps)
	return out
}

// Strings returns a copy of the steps as plain strings.
func (p Plan) Strings() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = string(s)
	}
	return out
}

// MarshalJSON encodes the plan as an array of action strings.
func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Strings())
}

// UnmarshalJSON decodes an array of action strings.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var actions []string
	if err := json.Unmarshal(data, &actions); err != nil {
		return err
	}
	*p = NewPlan(actions)
	return nil
}
