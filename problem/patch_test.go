package problem

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/ffplan/planerr"
)

func TestPatch_InsertsAfterMarkerInOrder(t *testing.T) {
	tmpl, err := os.ReadFile("testdata/problem_save.pddl")
	require.NoError(t, err)

	facts := []string{"(on c3 peg1)", "(on c2 c3)", "(clear c1)"}
	out, err := Patch(tmpl, facts)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, InitMarker+"    (on c3 peg1)\n    (on c2 c3)\n    (clear c1)\n    (free-gripper)\n")

	// nothing removed: every template line is still present, in order
	origLines := strings.Split(string(tmpl), "\n")
	outLines := strings.Split(text, "\n")
	assert.Len(t, outLines, len(origLines)+len(facts))
	j := 0
	for _, l := range outLines {
		if j < len(origLines) && l == origLines[j] {
			j++
		}
	}
	assert.Equal(t, len(origLines), j)
}

func TestPatch_NoFacts(t *testing.T) {
	tmpl, err := os.ReadFile("testdata/problem_save.pddl")
	require.NoError(t, err)

	out, err := Patch(tmpl, nil)
	require.NoError(t, err)
	assert.Equal(t, string(tmpl), string(out))
}

func TestPatch_OnlyFirstMarker(t *testing.T) {
	tmpl := []byte("a\n" + InitMarker + "b\n" + InitMarker)
	out, err := Patch(tmpl, []string{"(x)"})
	require.NoError(t, err)
	assert.Equal(t, "a\n"+InitMarker+"    (x)\nb\n"+InitMarker, string(out))
}

func TestPatch_MissingMarker(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
	}{
		{"no init section", "(define (problem hanoi)\n  (:domain hanoi)\n)\n"},
		{"marker without trailing space", "(define (problem hanoi)\n  (:init\n  )\n)\n"},
		{"marker with other indentation", "(define (problem hanoi)\n(:init \n  )\n)\n"},
		{"marker is last line without newline", "(define (problem hanoi)\n  (:init "},
		{"empty template", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Patch([]byte(tt.tmpl), []string{"(clear c1)"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingSectionMarker))
			assert.True(t, planerr.HasCode(err, planerr.ErrCodeMissingSectionMarker))
		})
	}
}

func TestPatch_CRLFTemplateIsRejected(t *testing.T) {
	tmpl, err := os.ReadFile("testdata/crlf.pddl")
	require.NoError(t, err)

	_, err = Patch(tmpl, []string{"(clear c1)"})
	assert.True(t, errors.Is(err, ErrMissingSectionMarker))
}
