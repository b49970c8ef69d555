package semantic

import (
	"errors"
	"testing"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/pattern"
	"github.com/dhamidi/cxg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(t *testing.T, p string, words ...string) *pattern.MatchResult {
	var toks []token.Token
	for i := 0; i+1 < len(words); i += 2 {
		toks = append(toks, token.Token{Word: words[i], Lemma: words[i], POS: words[i+1], Position: i / 2})
	}
	g, err := pattern.Compile(p)
	require.NoError(t, err)
	m := pattern.NewMatcher(0).Match(g, toks, 0)
	require.NotNil(t, m)
	return m
}

func TestBuiltins(t *testing.T) {
	c := NewCalculator()
	m := match(t, `{DET} {NOUN}`, "the", "DET", "cat", "NOUN")

	tests := []struct {
		method   string
		config   map[string]any
		value    any
		features map[string]string
	}{
		{"concat", nil, "the cat", map[string]string{"semantic_text": "the cat"}},
		{"concat", map[string]any{"separator": "_"}, "the_cat", map[string]string{"semantic_text": "the_cat"}},
		{"slot", map[string]any{"slot": "NOUN"}, "cat", map[string]string{"semantic_slot": "cat"}},
		{"count", nil, 2, map[string]string{"semantic_count": "2"}},
		{"constant", map[string]any{"value": "animal"}, "animal", map[string]string{"semantic_value": "animal"}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			res, err := c.Calculate(m, &construction.Semantics{Method: tt.method, Config: tt.config})
			require.NoError(t, err)
			assert.Equal(t, tt.value, res.Value)
			assert.Equal(t, tt.features, res.Features)
		})
	}
}

func TestNumber(t *testing.T) {
	c := NewCalculator()
	sem := &construction.Semantics{Method: "number"}
	m := match(t, `{NUM}+`, "two", "NUM", "hundred", "NUM", "five", "NUM")
	res, err := c.Calculate(m, sem)
	require.NoError(t, err)
	assert.Equal(t, 205.0, res.Value)
	assert.Equal(t, "205", res.Features["NumValue"])

	m = match(t, `{NUM} {NUM}`, "3", "NUM", "thousand", "NUM")
	res, err = c.Calculate(m, sem)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, res.Value)
}

func TestCalculate_Failures(t *testing.T) {
	c := NewCalculator()
	m := match(t, `{NOUN}`, "cat", "NOUN")

	res, err := c.Calculate(m, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Value)

	_, err = c.Calculate(m, &construction.Semantics{Method: "missing"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	boom := errors.New("boom")
	c.Register("failing", Funcs{Calc: func(*pattern.MatchResult, map[string]any) (any, error) { return nil, boom }})
	_, err = c.Calculate(m, &construction.Semantics{Method: "failing"})
	assert.ErrorIs(t, err, boom)

	c.Register("panicking", Funcs{Calc: func(*pattern.MatchResult, map[string]any) (any, error) { panic("bad plugin") }})
	_, err = c.Calculate(m, &construction.Semantics{Method: "panicking"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad plugin")

	assert.Equal(t, Result{}, c.Apply("cx", m, &construction.Semantics{Method: "panicking"}))
	assert.Equal(t, []string{"cat"}, m.MatchedTokens, "match is untouched")
}

func TestActions(t *testing.T) {
	c := NewCalculator()
	assert.Equal(t, []string{"concat", "constant", "count", "lemma", "number", "slot"}, c.Actions())
}
