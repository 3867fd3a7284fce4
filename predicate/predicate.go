package predicate

import (
	"errors"
	"fmt"
	"strings"
)

// Predicate is a named relation over ordered object arguments.
type Predicate struct {
	Name string
	Args []string
}

// ErrInvalidPredicate is wrapped by every Parse failure.
var ErrInvalidPredicate = errors.New("invalid predicate")

// Parse strictly parses functional notation such as "on(cube1,cube2)".
// A bare name ("free-gripper") and an empty argument list ("p()") are both
// accepted as zero-argument predicates.
func Parse(key string) (Predicate, error) {
	s := strings.TrimSpace(key)
	if s == "" {
		return Predicate{}, fmt.Errorf("%w: empty key", ErrInvalidPredicate)
	}

	open := strings.IndexByte(s, '(')
	if open < 0 {
		if strings.ContainsAny(s, "),") || len(strings.Fields(s)) != 1 {
			return Predicate{}, fmt.Errorf("%w: %q", ErrInvalidPredicate, key)
		}
		return Predicate{Name: s}, nil
	}

	name := strings.TrimSpace(s[:open])
	if name == "" || strings.ContainsAny(name, " \t") {
		return Predicate{}, fmt.Errorf("%w: bad name in %q", ErrInvalidPredicate, key)
	}
	if !strings.HasSuffix(s, ")") || strings.Count(s, "(") != 1 || strings.Count(s, ")") != 1 {
		return Predicate{}, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidPredicate, key)
	}

	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	p := Predicate{Name: name}
	if inner == "" {
		return p, nil
	}
	for _, arg := range strings.Split(inner, ",") {
		arg = strings.TrimSpace(arg)
		if arg == "" || strings.ContainsAny(arg, " \t") {
			return Predicate{}, fmt.Errorf("%w: empty or spaced argument in %q", ErrInvalidPredicate, key)
		}
		p.Args = append(p.Args, arg)
	}
	return p, nil
}

// MustParse is Parse that panics on error. For tests and literals.
func MustParse(key string) Predicate {
	p, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the planning-syntax fact, e.g. "(on cube1 cube2)".
func (p Predicate) String() string {
	if len(p.Args) == 0 {
		return "(" + p.Name + ")"
	}
	return "(" + p.Name + " " + strings.Join(p.Args, " ") + ")"
}

// Key returns the identity of the predicate in functional notation.
// Two predicates are the same fact exactly when their keys are equal.
func (p Predicate) Key() string {
	return p.Name + "(" + strings.Join(p.Args, ",") + ")"
}

// Equal reports whether p and o have the same name and argument tuple.
func (p Predicate) Equal(o Predicate) bool {
	if p.Name != o.Name || len(p.Args) != len(o.Args) {
		return false
	}
	for i := range p.Args {
		if p.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

var separators = strings.NewReplacer("(", " ", ")", " ", ",", " ")

// Format converts a functional-notation key into a planning-syntax fact.
// Whitespace is normalized, so "p()" formats to "(p)". Format never fails;
// use Parse when malformed keys must be rejected.
func Format(key string) string {
	return "(" + strings.Join(strings.Fields(separators.Replace(key)), " ") + ")"
}
