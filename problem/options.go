package problem

import "strings"

// DefaultGoalCondition builds the stacking goal only with three or more
// objects to stack. Smaller stacks get an empty goal.
const DefaultGoalCondition = "size(stack) >= 3"

// Options configures problem synthesis. Zero values take the defaults
// documented on each field.
type Options struct {
	// Name is the problem name. Default "hanoi".
	Name string

	// Domain is the domain name the problem refers to. Default "hanoi".
	Domain string

	// Baseline facts open the init section in generated problems.
	// Default ["(free-gripper)"]. Set to an empty non-nil slice for none.
	Baseline []string

	// Types maps a manifest category to its object type tag.
	// Default {"cubes": "disk", "pegs": "peg"}. Unmapped categories use
	// the category name with one trailing "s" removed.
	Types map[string]string

	// StackCategory names the category stacked by the goal. Default "cubes".
	StackCategory string

	// TargetCategory names the category whose last object receives the
	// stack. Default "pegs".
	TargetCategory string

	// GoalCondition is a CEL expression deciding whether the stacking goal
	// is built. Variables: stack, targets (list(string)) and manifest
	// (map(string, list(string))). Default DefaultGoalCondition.
	GoalCondition string

	// StrictObjects rejects observations that reference objects missing
	// from the manifest instead of writing a problem with dangling names.
	StrictObjects bool
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "hanoi"
	}
	if o.Domain == "" {
		o.Domain = "hanoi"
	}
	if o.Baseline == nil {
		o.Baseline = []string{"(free-gripper)"}
	}
	if o.Types == nil {
		o.Types = map[string]string{"cubes": "disk", "pegs": "peg"}
	}
	if o.StackCategory == "" {
		o.StackCategory = "cubes"
	}
	if o.TargetCategory == "" {
		o.TargetCategory = "pegs"
	}
	if o.GoalCondition == "" {
		o.GoalCondition = DefaultGoalCondition
	}
	return o
}

// TypeFor returns the type tag for a category.
func (o Options) TypeFor(category string) string {
	if t, ok := o.Types[category]; ok && t != "" {
		return t
	}
	return strings.TrimSuffix(category, "s")
}
