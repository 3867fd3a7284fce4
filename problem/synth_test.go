package problem

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/ffplan/planerr"
	"github.com/zero-day-ai/ffplan/predicate"
	"gopkg.in/yaml.v3"
)

func hanoiManifest(cubes ...string) Manifest {
	return Manifest{
		{Name: "cubes", Objects: cubes},
		{Name: "pegs", Objects: []string{"peg1", "peg2", "peg3"}},
	}
}

func newSynth(t *testing.T, opts Options) *Synthesizer {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestGenerate_StackingGoal(t *testing.T) {
	s := newSynth(t, Options{})

	p, err := s.Generate(hanoiManifest("c1", "c2", "c3"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"(on c1 c2)", "(on c2 c3)", "(on c3 peg3)"}, p.Goal)
}

func TestGenerate_FewerThanThreeCubesGivesEmptyGoal(t *testing.T) {
	s := newSynth(t, Options{})

	for _, cubes := range [][]string{nil, {"c1"}, {"c1", "c2"}} {
		p, err := s.Generate(hanoiManifest(cubes...), nil)
		require.NoError(t, err)
		assert.Empty(t, p.Goal)
		assert.Contains(t, p.Render(), "    (and )\n")
	}
}

func TestGenerate_Sections(t *testing.T) {
	s := newSynth(t, Options{})
	obs := predicate.Observations{
		{Key: "on(c3,peg1)", Value: true},
		{Key: "on(c2,c3)", Value: true},
		{Key: "clear(peg2)", Value: false},
		{Key: "clear(c2)", Value: true},
	}

	p, err := s.Generate(hanoiManifest("c1", "c2", "c3", "c4"), obs)
	require.NoError(t, err)

	assert.Equal(t, "hanoi", p.Name)
	assert.Equal(t, "hanoi", p.Domain)
	assert.Equal(t, []ObjectGroup{
		{Names: []string{"c1", "c2", "c3", "c4"}, Type: "disk"},
		{Names: []string{"peg1", "peg2", "peg3"}, Type: "peg"},
	}, p.Objects)
	assert.Equal(t, []string{"(free-gripper)", "(on c3 peg1)", "(on c2 c3)", "(clear c2)"}, p.Init)
	assert.Equal(t, []string{"(on c1 c2)", "(on c2 c3)", "(on c3 c4)", "(on c4 peg3)"}, p.Goal)
}

func TestGenerate_SkipsEmptyCategoriesAndKeepsOrder(t *testing.T) {
	s := newSynth(t, Options{})
	m := Manifest{
		{Name: "pegs", Objects: []string{"peg1"}},
		{Name: "trays", Objects: nil},
		{Name: "cubes", Objects: []string{"c1"}},
	}
	p, err := s.Generate(m, nil)
	require.NoError(t, err)
	assert.Equal(t, []ObjectGroup{
		{Names: []string{"peg1"}, Type: "peg"},
		{Names: []string{"c1"}, Type: "disk"},
	}, p.Objects)
}

func TestGenerate_NoTargetObjects(t *testing.T) {
	s := newSynth(t, Options{})
	m := Manifest{{Name: "cubes", Objects: []string{"c1", "c2", "c3"}}}

	_, err := s.Generate(m, nil)
	require.Error(t, err)
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput))
}

func TestGenerate_InvalidManifest(t *testing.T) {
	s := newSynth(t, Options{})
	m := Manifest{
		{Name: "cubes", Objects: []string{"c1"}},
		{Name: "pegs", Objects: []string{"c1"}},
	}
	_, err := s.Generate(m, nil)
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput))
}

func TestGenerate_CustomOptions(t *testing.T) {
	s := newSynth(t, Options{
		Name:           "blocks-7",
		Domain:         "blocks",
		Baseline:       []string{},
		Types:          map[string]string{"blocks": "block", "tables": "table"},
		StackCategory:  "blocks",
		TargetCategory: "tables",
		GoalCondition:  "size(stack) >= 2 && size(targets) > 0",
	})
	m := Manifest{
		{Name: "blocks", Objects: []string{"a", "b"}},
		{Name: "tables", Objects: []string{"t1", "t2"}},
	}

	p, err := s.Generate(m, predicate.Observations{{Key: "clear(a)", Value: true}})
	require.NoError(t, err)
	assert.Equal(t, "blocks-7", p.Name)
	assert.Equal(t, "blocks", p.Domain)
	assert.Equal(t, []string{"(clear a)"}, p.Init)
	assert.Equal(t, []ObjectGroup{
		{Names: []string{"a", "b"}, Type: "block"},
		{Names: []string{"t1", "t2"}, Type: "table"},
	}, p.Objects)
	assert.Equal(t, []string{"(on a b)", "(on b t2)"}, p.Goal)
}

func TestGenerate_GoalConditionUsesManifest(t *testing.T) {
	s := newSynth(t, Options{GoalCondition: `"pegs" in manifest && size(manifest["pegs"]) == 3`})

	p, err := s.Generate(hanoiManifest("c1"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"(on c1 peg3)"}, p.Goal)
}

func TestNew_BadGoalCondition(t *testing.T) {
	for _, expr := range []string{"size(stack) >=", "size(stack)", "unknown_var > 1"} {
		t.Run(expr, func(t *testing.T) {
			_, err := New(Options{GoalCondition: expr})
			require.Error(t, err)
			assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput))
		})
	}
}

func TestGenerate_StrictObjects(t *testing.T) {
	obs := predicate.Observations{{Key: "on(c1,tray9)", Value: true}}

	lenient := newSynth(t, Options{})
	p, err := lenient.Generate(hanoiManifest("c1", "c2", "c3"), obs)
	require.NoError(t, err)
	assert.Equal(t, []string{"tray9"}, p.Dangling())

	strict := newSynth(t, Options{StrictObjects: true})
	_, err = strict.Generate(hanoiManifest("c1", "c2", "c3"), obs)
	require.Error(t, err)
	var pe *planerr.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"tray9"}, pe.Details["objects"])
}

func TestSynthesize_DynamicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "problem_dummy.pddl")
	s := newSynth(t, Options{})

	obs := predicate.Observations{
		{Key: "on(c3,peg1)", Value: true},
		{Key: "on(c2,c3)", Value: true},
		{Key: "on(c1,c2)", Value: true},
		{Key: "clear(c1)", Value: true},
		{Key: "clear(peg2)", Value: true},
		{Key: "clear(peg3)", Value: true},
	}
	art, err := s.Synthesize(context.Background(), Request{
		Observations: obs,
		Manifest:     hanoiManifest("c1", "c2", "c3"),
		Output:       out,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeDynamic, art.Mode)
	assert.Equal(t, 6, art.Facts)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, art.Text, string(data))

	p, err := Parse(string(data))
	require.NoError(t, err)
	assert.Empty(t, p.Dangling(), "every referenced object must be declared")
	assert.ElementsMatch(t, []string{"c1", "c2", "c3", "peg1", "peg2", "peg3"}, p.ObjectNames())
	assert.Equal(t, []string{"(on c1 c2)", "(on c2 c3)", "(on c3 peg3)"}, p.Goal)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSynthesize_TemplatePatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "problem_dummy.pddl")
	s := newSynth(t, Options{})

	art, err := s.Synthesize(context.Background(), Request{
		Observations: predicate.Observations{
			{Key: "on(c1,c2)", Value: true},
			{Key: "clear(c3)", Value: false},
			{Key: "clear(c1)", Value: true},
		},
		Template: "testdata/problem_save.pddl",
		Output:   out,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeTemplate, art.Mode)
	assert.Equal(t, 2, art.Facts)

	p, err := Parse(art.Text)
	require.NoError(t, err)
	assert.Equal(t, []string{"(on c1 c2)", "(clear c1)", "(free-gripper)"}, p.Init)

	tmpl, err := os.ReadFile("testdata/problem_save.pddl")
	require.NoError(t, err)
	assert.NotEqual(t, string(tmpl), art.Text, "template itself is not modified")
}

func TestSynthesize_ReplacesExistingOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "p.pddl")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	s := newSynth(t, Options{})
	_, err := s.Synthesize(context.Background(), Request{Manifest: hanoiManifest("c1"), Output: out})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestSynthesize_MissingMarkerEscapes(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "broken.pddl")
	require.NoError(t, os.WriteFile(tmpl, []byte("(define (problem hanoi)\n  (:init\n  )\n)\n"), 0o644))
	out := filepath.Join(dir, "out.pddl")

	s := newSynth(t, Options{})
	_, err := s.Synthesize(context.Background(), Request{Template: tmpl, Output: out})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSectionMarker))

	var pe *planerr.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, tmpl, pe.Details["template"])

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "nothing written on failure")
}

func TestSynthesize_InputErrors(t *testing.T) {
	s := newSynth(t, Options{})
	ctx := context.Background()

	_, err := s.Synthesize(ctx, Request{Manifest: hanoiManifest("c1")})
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput), "missing output")

	_, err = s.Synthesize(ctx, Request{Output: filepath.Join(t.TempDir(), "p.pddl")})
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput), "missing template")

	_, err = s.Synthesize(ctx, Request{Template: "testdata/nope.pddl", Output: filepath.Join(t.TempDir(), "p.pddl")})
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput), "unreadable template")

	_, err = s.Synthesize(ctx, Request{Manifest: hanoiManifest("c1"), Output: filepath.Join(t.TempDir(), "missing", "p.pddl")})
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeWriteFailed), "unwritable output")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Synthesize(cancelled, Request{Manifest: hanoiManifest("c1"), Output: filepath.Join(t.TempDir(), "p.pddl")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManifest_UnmarshalYAML(t *testing.T) {
	doc := `
pegs: [peg1, peg2, peg3]
cubes:
  - c1
  - c2
`
	var m Manifest
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))
	assert.Equal(t, Manifest{
		{Name: "pegs", Objects: []string{"peg1", "peg2", "peg3"}},
		{Name: "cubes", Objects: []string{"c1", "c2"}},
	}, m)
	assert.Equal(t, []string{"c1", "c2"}, m.Objects("cubes"))
	assert.Nil(t, m.Objects("trays"))

	var fromJSON Manifest
	require.NoError(t, yaml.Unmarshal([]byte(`{"cubes": ["c2", "c1"], "pegs": ["p"]}`), &fromJSON))
	assert.Equal(t, []string{"c2", "c1", "p"}, fromJSON.Names())

	var bad Manifest
	assert.Error(t, yaml.Unmarshal([]byte(`cubes: 3`), &bad))
}

func TestManifest_ObjectsReturnsCopy(t *testing.T) {
	m := hanoiManifest("c1", "c2")
	got := m.Objects("cubes")
	got[0] = "zz"
	assert.Equal(t, "c1", m[0].Objects[0])
}

func TestManifest_JSONKeepsOrder(t *testing.T) {
	m := Manifest{
		{Name: "pegs", Objects: []string{"peg1"}},
		{Name: "cubes", Objects: []string{"c2", "c1"}},
		{Name: "trays"},
	}

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"pegs":["peg1"],"cubes":["c2","c1"],"trays":[]}`, string(b))

	var got Manifest
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, []string{"peg1", "c2", "c1"}, got.Names())
	assert.Equal(t, "trays", got[2].Name)
	assert.Empty(t, got[2].Objects)
}
