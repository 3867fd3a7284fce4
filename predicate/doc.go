// Package predicate converts observed facts from functional notation into
// planning-language syntax.
//
// Perception reports facts as keys like "on(cube1,cube2)" with a truth value.
// The planner only accepts true facts written as "(on cube1 cube2)". Format
// does the notation change and FormatTrue applies the truth filter while
// keeping the caller's order:
//
//	obs := predicate.Observations{
//	    {Key: "clear(cube1)", Value: true},
//	    {Key: "on(cube1,cube2)", Value: false},
//	}
//	facts := predicate.FormatTrue(obs) // ["(clear cube1)"]
//
// Observations is an ordered slice because the order of facts in a problem
// file follows the order they were observed in. It decodes from YAML or JSON
// mappings without losing key order.
package predicate
