package problem

import (
	"fmt"
	"strings"
)

// InitMarker is the exact line that opens the initial-state section.
// Template patching depends on it verbatim, including the trailing space
// and LF ending.
const InitMarker = "  (:init \n"

// ObjectGroup is one line of the objects section: names sharing a type.
type ObjectGroup struct {
	Names []string
	Type  string
}

// Problem is a synthesized planning problem.
type Problem struct {
	Name    string
	Domain  string
	Objects []ObjectGroup
	Init    []string
	Goal    []string
}

// Render produces the problem text in the fixed section layout.
// An empty goal renders as the trivially satisfied "(and )".
func (p *Problem) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "(define (problem %s)\n", p.Name)
	fmt.Fprintf(&b, "  (:domain %s)\n", p.Domain)

	b.WriteString("  (:objects \n")
	for _, g := range p.Objects {
		fmt.Fprintf(&b, "    %s - %s\n", strings.Join(g.Names, " "), g.Type)
	}
	b.WriteString("  )\n")

	b.WriteString(InitMarker)
	for _, f := range p.Init {
		b.WriteString("    " + f + "\n")
	}
	b.WriteString("  )\n")

	b.WriteString("  (:goal \n")
	if len(p.Goal) == 0 {
		b.WriteString("    (and )\n")
	} else {
		b.WriteString("    (and\n")
		for _, f := range p.Goal {
			b.WriteString("         " + f + "\n")
		}
		b.WriteString("    )\n")
	}
	b.WriteString("  )\n")
	b.WriteString(")\n")

	return b.String()
}

// ObjectNames returns every declared object, in declaration order.
func (p *Problem) ObjectNames() []string {
	var names []string
	for _, g := range p.Objects {
		names = append(names, g.Names...)
	}
	return names
}

// References returns every object named as an argument of an init or goal
// fact, deduplicated, in first-seen order.
func (p *Problem) References() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, facts := range [][]string{p.Init, p.Goal} {
		for _, f := range facts {
			for _, arg := range factArgs(f) {
				if !seen[arg] {
					seen[arg] = true
					refs = append(refs, arg)
				}
			}
		}
	}
	return refs
}

// Dangling returns referenced objects that are not declared.
func (p *Problem) Dangling() []string {
	declared := make(map[string]bool)
	for _, n := range p.ObjectNames() {
		declared[n] = true
	}
	var out []string
	for _, r := range p.References() {
		if !declared[r] {
			out = append(out, r)
		}
	}
	return out
}

func factArgs(fact string) []string {
	fields := strings.Fields(strings.NewReplacer("(", " ", ")", " ").Replace(fact))
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

type section int

const (
	sectionNone section = iota
	sectionObjects
	sectionInit
	sectionGoal
)

// Parse reads a problem written in the layout Render produces, which is
// also the layout of the shipped templates. It is not a general PDDL parser.
func Parse(text string) (*Problem, error) {
	p := &Problem{}
	sec := sectionNone
	goalDepth := 0

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "(define (problem "):
			p.Name = strings.TrimSuffix(strings.TrimPrefix(line, "(define (problem "), ")")
			continue
		case strings.HasPrefix(line, "(:domain "):
			p.Domain = strings.TrimSuffix(strings.TrimPrefix(line, "(:domain "), ")")
			continue
		case line == "(:objects":
			sec = sectionObjects
			continue
		case line == "(:init":
			sec = sectionInit
			continue
		case line == "(:goal":
			sec, goalDepth = sectionGoal, 0
			continue
		}

		switch sec {
		case sectionObjects:
			if line == ")" {
				sec = sectionNone
				continue
			}
			g, err := parseObjectLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			p.Objects = append(p.Objects, g)
		case sectionInit:
			if line == ")" {
				sec = sectionNone
				continue
			}
			p.Init = append(p.Init, line)
		case sectionGoal:
			switch {
			case line == "(and )" || line == "(and)":
			case line == "(and":
				goalDepth++
			case line == ")":
				if goalDepth == 0 {
					sec = sectionNone
				} else {
					goalDepth--
				}
			default:
				p.Goal = append(p.Goal, line)
			}
		}
	}

	if p.Name == "" {
		return nil, fmt.Errorf("no problem header found")
	}
	return p, nil
}

func parseObjectLine(line string) (ObjectGroup, error) {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "-" {
			if i == 0 || i != len(fields)-2 {
				break
			}
			return ObjectGroup{Names: fields[:i], Type: fields[i+1]}, nil
		}
	}
	return ObjectGroup{}, fmt.Errorf("object line %q is not of the form \"names - type\"", line)
}
