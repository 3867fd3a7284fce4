// Package parser reads the textual output of the planner.
//
// ParseTrace turns the plan section of the output into ordered action
// tokens. ParseStats reads the timing report that follows it. Neither knows
// where the sections start; locating them is the solver adapter's job.
package parser
