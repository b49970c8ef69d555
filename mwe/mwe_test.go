package mwe

import (
	"testing"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/parse"
	"github.com/dhamidi/cxg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentence() []token.Token {
	words := [][2]string{
		{"they", "PRON"}, {"scored", "VERB"}, {"a", "DET"},
		{"goal", "NOUN"}, {"against", "ADP"}, {"the", "DET"}, {"champions", "NOUN"},
	}
	out := make([]token.Token, len(words))
	for i, w := range words {
		out[i] = token.Token{Word: w[0], Lemma: w[0], POS: w[1], Position: i}
	}
	return out
}

func goalAgainst() *construction.Definition {
	return &construction.Definition{
		Name:                 "goal_against",
		Type:                 construction.TypeMWE,
		Pattern:              `goal against`,
		Priority:             150,
		LookaheadEnabled:     true,
		LookaheadMaxDistance: 2,
		InvalidationPatterns: []construction.LookaheadPattern{{Pattern: "{DET}", Description: "object follows"}},
		ConfirmationPatterns: []construction.LookaheadPattern{{Pattern: `"."|{PUNCT}`}},
		CE:                   construction.CELabels{Phrasal: "mwe_head"},
	}
}

func tentative(t *testing.T, m *alternative.Manager, def *construction.Definition, toks []token.Token) *alternative.State {
	alt := m.Create(def, toks[3], 3)
	require.NotNil(t, alt)
	alt = m.TryAdvance(alt, toks[4])
	require.NotNil(t, alt)
	require.Equal(t, alternative.TentativeComplete, alt.Status)
	return alt
}

// A token matching both lists invalidates.
func TestLookahead_InvalidationFirst(t *testing.T) {
	toks := sentence()
	def := goalAgainst()
	def.ConfirmationPatterns = []construction.LookaheadPattern{{Pattern: "{DET}"}}
	alt := tentative(t, alternative.NewManager(nil, 0), def, toks)

	res := Lookahead{}.Check(alt, def, toks, 5)
	assert.Equal(t, Invalidated, res.Status)
	require.NotNil(t, res.Matched)
	assert.Equal(t, "the", res.Matched.Word)
	assert.Contains(t, res.Reason, "object follows")
}

func TestLookahead_Check(t *testing.T) {
	def := goalAgainst()
	m := alternative.NewManager(nil, 0)

	t.Run("end of sentence", func(t *testing.T) {
		toks := sentence()[:5]
		alt := tentative(t, m, def, toks)
		assert.Equal(t, Confirmed, Lookahead{}.Check(alt, def, toks, 4).Status)
	})

	t.Run("only observed tokens count", func(t *testing.T) {
		toks := sentence()
		alt := tentative(t, m, def, toks)
		res := Lookahead{}.Check(alt, def, toks, 4)
		assert.Equal(t, Undecided, res.Status)
		assert.False(t, Lookahead{}.ExceededWindow(alt, def, 4))
	})

	t.Run("confirmation", func(t *testing.T) {
		toks := sentence()
		toks[5] = token.Token{Word: ".", Lemma: ".", POS: "PUNCT", Position: 5}
		alt := tentative(t, m, def, toks)
		assert.Equal(t, Confirmed, Lookahead{}.Check(alt, def, toks, 5).Status)
	})

	t.Run("window exhausted", func(t *testing.T) {
		toks := sentence()
		toks[5] = token.Token{Word: "quickly", Lemma: "quickly", POS: "ADV", Position: 5}
		toks[6] = token.Token{Word: "again", Lemma: "again", POS: "ADV", Position: 6}
		alt := tentative(t, m, def, toks)
		assert.Equal(t, Undecided, Lookahead{}.Check(alt, def, toks, 6).Status)
		assert.True(t, Lookahead{}.ExceededWindow(alt, def, 6))
	})
}

func TestMatchesPattern(t *testing.T) {
	tok := token.Token{Word: "Went", Lemma: "go", POS: "VERB"}
	tests := []struct {
		pattern string
		want    bool
	}{
		{"{VERB}", true},
		{"{verb}", true},
		{"{NOUN}", false},
		{`"went"`, true},
		{`go`, true},
		{`"goes"`, false},
		{`{NOUN} | "go"`, true},
		{`{NOUN}|{ADJ}`, false},
		{``, false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesPattern(tt.pattern, tok))
		})
	}
}

func TestAggregate(t *testing.T) {
	toks := sentence()
	toks[3].Features = map[string]string{"Number": "Sing", "Case": "Nom"}
	toks[4].Features = map[string]string{"Case": "Acc"}
	def := goalAgainst()
	def.AggregateAs = "goal_against"
	m := alternative.NewManager(nil, 0)
	alt := tentative(t, m, def, toks)

	st := parse.NewState(toks)
	agg := &Aggregator{Alternatives: m}
	node, err := agg.Aggregate(st, alt, def, 5)
	require.NoError(t, err)

	assert.Equal(t, "goal_against", node.Text)
	assert.Equal(t, []string{"goal", "against"}, node.Words)
	assert.Equal(t, map[string]string{"Number": "Sing", "Case": "Acc"}, node.Features, "later components win")
	assert.Equal(t, "mwe_head", node.CE.Phrasal)
	assert.Equal(t, 3, node.Start)
	assert.Equal(t, 4, node.End)
	assert.Equal(t, 5, node.ConfirmedAt)
	assert.Equal(t, []int{3, 4}, st.ConsumedPositions(construction.TypeMWE))

	_, err = agg.Aggregate(st, alt, def, 6)
	assert.Error(t, err, "the same structure cannot be confirmed twice")
	assert.Len(t, st.Nodes, 1)
}

func TestPreserve_Hybrid(t *testing.T) {
	toks := sentence()
	def := goalAgainst()

	t.Run("no competing structure", func(t *testing.T) {
		m := alternative.NewManager(nil, 0)
		alt := tentative(t, m, def, toks)
		st := parse.NewState(toks)

		heads := (&Aggregator{Alternatives: m}).Preserve(st, alt, PreserveHybrid)
		require.Len(t, heads, 2)
		assert.Equal(t, "HEAD_NOUN", heads[0].Name)
		assert.Equal(t, 3, heads[0].Start)
		assert.Equal(t, "HEAD_ADP", heads[1].Name)
		assert.Equal(t, 4, heads[1].Start)
		for _, h := range heads {
			assert.Equal(t, alternative.Complete, h.Status)
			assert.Equal(t, construction.HeadPriority, h.Priority)
		}
		assert.Equal(t, 2, st.Queue.Len())
	})

	t.Run("position claimed by a labelled structure", func(t *testing.T) {
		m := alternative.NewManager(nil, 0)
		alt := tentative(t, m, def, toks)
		st := parse.NewState(toks)
		require.NoError(t, st.Confirm(&parse.Node{
			ID: st.NextNodeID(), Construction: "np", Type: construction.TypeClausal,
			Start: 2, End: 3, CE: construction.CELabels{Clausal: "obj"},
		}))

		heads := (&Aggregator{Alternatives: m}).Preserve(st, alt, PreserveHybrid)
		require.Len(t, heads, 1)
		assert.Equal(t, 4, heads[0].Start)
		assert.Equal(t, "against", heads[0].Matched[0].Word)
	})
}

func TestPreserve_Strategies(t *testing.T) {
	toks := sentence()
	def := goalAgainst()

	tests := []struct {
		strategy Strategy
		starts   []int
	}{
		{PreserveLast, []int{4}},
		{PreserveAll, []int{3, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			m := alternative.NewManager(nil, 0)
			alt := tentative(t, m, def, toks)
			st := parse.NewState(toks)
			require.NoError(t, st.Confirm(&parse.Node{
				ID: st.NextNodeID(), Construction: "np", Type: construction.TypeClausal,
				Start: 2, End: 3, CE: construction.CELabels{Clausal: "obj"},
			}))
			var starts []int
			for _, h := range (&Aggregator{Alternatives: m}).Preserve(st, alt, tt.strategy) {
				starts = append(starts, h.Start)
			}
			assert.Equal(t, tt.starts, starts)
		})
	}

	m := alternative.NewManager(nil, 0)
	alt := tentative(t, m, def, toks)
	st := parse.NewState(toks)
	require.NoError(t, st.Confirm(&parse.Node{ID: st.NextNodeID(), Construction: "x", Type: construction.TypePhrasal, Start: 4, End: 4}))
	heads := (&Aggregator{Alternatives: m}).Preserve(st, alt, PreserveLast)
	assert.Empty(t, heads, "claimed positions are not re-exposed")
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, PreserveHybrid, s)
	s, err = ParseStrategy("ALL")
	require.NoError(t, err)
	assert.Equal(t, PreserveAll, s)
	_, err = ParseStrategy("some")
	assert.Error(t, err)
}
