// Package problem synthesizes planning problem files from observed facts.
//
// Two modes exist. Without a manifest, a template problem is read and the
// observed facts are inserted after its init marker line (see Patch). With a
// manifest of detected objects, the whole problem is generated: objects,
// initial facts and a stacking goal (see Generate).
//
// Output files are replaced atomically. Concurrent synthesis into the same
// output path is still the caller's problem: the last rename wins.
package problem

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zero-day-ai/ffplan/planerr"
	"github.com/zero-day-ai/ffplan/predicate"
)

// Mode identifies how a problem was produced.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeDynamic  Mode = "dynamic"
)

// Request describes one synthesis.
type Request struct {
	// Observations are the perceived facts; only true ones are written.
	Observations predicate.Observations

	// Manifest selects dynamic generation when non-nil.
	Manifest Manifest

	// Template is the template path used when Manifest is nil.
	Template string

	// Output is the path the problem is written to.
	Output string
}

// Artifact describes a written problem.
type Artifact struct {
	Path  string
	Mode  Mode
	Facts int
	Text  string
}

// Synthesizer builds problem files.
type Synthesizer struct {
	opts Options
	goal *goalCondition
}

// New creates a Synthesizer, compiling the goal condition up front.
func New(opts Options) (*Synthesizer, error) {
	opts = opts.withDefaults()
	goal, err := compileGoalCondition(opts.GoalCondition)
	if err != nil {
		return nil, planerr.New("problem", "configure", planerr.ErrCodeInvalidInput, "bad goal condition").
			WithCause(err)
	}
	return &Synthesizer{opts: opts, goal: goal}, nil
}

// Options returns the effective options.
func (s *Synthesizer) Options() Options {
	return s.opts
}

// Synthesize writes a problem for req. A nil Manifest selects template
// patching; otherwise the problem is generated from the manifest.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Output == "" {
		return nil, planerr.New("problem", "synthesize", planerr.ErrCodeInvalidInput, "output path is required")
	}

	var (
		text  string
		mode  Mode
		facts = predicate.FormatTrue(req.Observations)
	)

	if req.Manifest == nil {
		mode = ModeTemplate
		if req.Template == "" {
			return nil, planerr.New("problem", "synthesize", planerr.ErrCodeInvalidInput,
				"template path is required without a manifest")
		}
		tmpl, err := os.ReadFile(req.Template)
		if err != nil {
			return nil, planerr.New("problem", "read_template", planerr.ErrCodeInvalidInput,
				fmt.Sprintf("failed to read template %s", req.Template)).WithCause(err)
		}
		patched, err := Patch(tmpl, facts)
		if err != nil {
			var pe *planerr.Error
			if errors.As(err, &pe) && pe.Details != nil {
				pe.Details["template"] = req.Template
			}
			return nil, err
		}
		text = string(patched)
	} else {
		mode = ModeDynamic
		p, err := s.Generate(req.Manifest, req.Observations)
		if err != nil {
			return nil, err
		}
		text = p.Render()
	}

	if err := writeFileAtomic(req.Output, []byte(text), 0o644); err != nil {
		return nil, planerr.EnrichError(planerr.New("problem", "write", planerr.ErrCodeWriteFailed,
			fmt.Sprintf("failed to write problem %s", req.Output)).WithCause(err))
	}

	return &Artifact{Path: req.Output, Mode: mode, Facts: len(facts), Text: text}, nil
}

// Generate builds a complete problem from a manifest and observations.
//
// Objects: one group per non-empty category, in manifest order.
// Init: the baseline facts followed by every true observation.
// Goal: when the goal condition holds, each stack object is placed on the
// next one and the last on the last target object; otherwise empty.
func (s *Synthesizer) Generate(m Manifest, obs predicate.Observations) (*Problem, error) {
	if err := m.Validate(); err != nil {
		return nil, planerr.New("problem", "generate", planerr.ErrCodeInvalidInput, "invalid manifest").
			WithCause(err)
	}

	p := &Problem{Name: s.opts.Name, Domain: s.opts.Domain}

	for _, c := range m {
		if len(c.Objects) == 0 {
			continue
		}
		p.Objects = append(p.Objects, ObjectGroup{
			Names: append([]string(nil), c.Objects...),
			Type:  s.opts.TypeFor(c.Name),
		})
	}

	p.Init = append(p.Init, s.opts.Baseline...)
	p.Init = append(p.Init, predicate.FormatTrue(obs)...)

	stack := m.Objects(s.opts.StackCategory)
	targets := m.Objects(s.opts.TargetCategory)

	build, err := s.goal.eval(stack, targets, m)
	if err != nil {
		return nil, planerr.New("problem", "generate", planerr.ErrCodeInvalidInput, "goal condition failed").
			WithCause(err)
	}
	if build && len(stack) > 0 {
		if len(targets) == 0 {
			return nil, planerr.New("problem", "generate", planerr.ErrCodeInvalidInput,
				fmt.Sprintf("no %q objects to place the stack on", s.opts.TargetCategory))
		}
		p.Goal = StackGoal(stack, targets[len(targets)-1])
	}

	if s.opts.StrictObjects {
		if dangling := p.Dangling(); len(dangling) > 0 {
			return nil, planerr.New("problem", "generate", planerr.ErrCodeInvalidInput,
				"observations reference objects missing from the manifest").
				WithDetails(map[string]any{"objects": dangling})
		}
	}

	return p, nil
}

// StackGoal returns the goal facts stacking objects in order, each on the
// next, with the last placed on target.
func StackGoal(stack []string, target string) []string {
	goal := make([]string, 0, len(stack))
	for i := 0; i+1 < len(stack); i++ {
		goal = append(goal, fmt.Sprintf("(on %s %s)", stack[i], stack[i+1]))
	}
	goal = append(goal, fmt.Sprintf("(on %s %s)", stack[len(stack)-1], target))
	return goal
}
