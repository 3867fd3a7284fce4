package predicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"single argument", "clear(cube1)", "(clear cube1)"},
		{"two arguments", "on(cube1,cube2)", "(on cube1 cube2)"},
		{"zero arguments", "p()", "(p)"},
		{"bare name", "free-gripper", "(free-gripper)"},
		{"spaces around arguments", "on( c1 , c2 )", "(on c1 c2)"},
		{"leading and trailing space", "  clear(c1)  ", "(clear c1)"},
		{"hyphenated name", "smaller-than(c1,c2)", "(smaller-than c1 c2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.key))
		})
	}
}

func TestFormatTrue(t *testing.T) {
	t.Run("emits exactly the true entries", func(t *testing.T) {
		obs := Observations{
			{Key: "p(a,b)", Value: true},
			{Key: "q(c)", Value: false},
		}
		assert.Equal(t, []string{"(p a b)"}, FormatTrue(obs))
	})

	t.Run("preserves input order", func(t *testing.T) {
		obs := Observations{
			{Key: "on(c3,peg1)", Value: true},
			{Key: "on(c1,c2)", Value: true},
			{Key: "clear(peg2)", Value: false},
			{Key: "clear(c1)", Value: true},
		}
		assert.Equal(t, []string{"(on c3 peg1)", "(on c1 c2)", "(clear c1)"}, FormatTrue(obs))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, FormatTrue(nil))
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		key  string
		want Predicate
	}{
		{"on(c1,c2)", Predicate{Name: "on", Args: []string{"c1", "c2"}}},
		{"clear(c1)", Predicate{Name: "clear", Args: []string{"c1"}}},
		{"p()", Predicate{Name: "p"}},
		{"free-gripper", Predicate{Name: "free-gripper"}},
		{" on( c1 , c2 ) ", Predicate{Name: "on", Args: []string{"c1", "c2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := Parse(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, Format(tt.key), got.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, key := range []string{
		"",
		"on(c1,c2",
		"on c1,c2)",
		"(c1)",
		"on(c1,,c2)",
		"on((c1))",
		"on(c1 c2)",
		"two words",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := Parse(key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPredicate))
		})
	}
}

func TestPredicateIdentity(t *testing.T) {
	a := MustParse("on(c1,c2)")
	b := MustParse("on( c1, c2 )")
	c := MustParse("on(c2,c1)")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "p()", MustParse("p").Key())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("on(") })
}
