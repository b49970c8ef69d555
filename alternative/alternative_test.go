package alternative

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tk(pos int, word, tag string) token.Token {
	return token.Token{Word: word, Lemma: word, POS: tag, Position: pos}
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{Pending, Progressing, true},
		{Pending, Complete, true},
		{Progressing, TentativeComplete, true},
		{Progressing, Pending, false},
		{Complete, Confirmed, true},
		{Complete, Invalidated, false},
		{TentativeComplete, Invalidated, true},
		{Confirmed, Aggregated, true},
		{Confirmed, Abandoned, false},
		{Invalidated, Abandoned, true},
		{Abandoned, Pending, false},
		{Aggregated, Confirmed, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
	assert.True(t, Abandoned.Terminal())
	assert.True(t, Aggregated.Terminal())
	assert.False(t, Pending.Terminal())
	assert.Equal(t, "tentative_complete", TentativeComplete.String())
}

func TestManager_Transition(t *testing.T) {
	m := NewManager(nil, 0)
	alt := &State{ID: 1, Status: Progressing}
	require.NoError(t, m.Transition(alt, TentativeComplete))
	require.NotNil(t, alt.Lookahead)
	require.NoError(t, m.Transition(alt, Confirmed))
	assert.Nil(t, alt.Lookahead)

	err := m.Transition(alt, Pending)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, Confirmed, alt.Status)
}

// An alternative over N elements completes exactly at the Nth token.
func TestThresholdMonotonicity(t *testing.T) {
	patterns := []string{`{NOUN}`, `a {NOUN}`, `{DET} {ADJ} {NOUN}`, `"in" the {ADJ} {NOUN} {VERB}`}
	for _, p := range patterns {
		t.Run(p, func(t *testing.T) {
			m := NewManager(nil, 0)
			def := &construction.Definition{Name: "c", Type: construction.TypePhrasal, Pattern: p, Priority: 60}
			g, err := m.Graph(def)
			require.NoError(t, err)
			n := g.ElementCount()

			var toks []token.Token
			for i, part := range strings.Fields(p) {
				part = strings.Trim(part, `"`)
				if strings.HasPrefix(part, "{") {
					toks = append(toks, tk(i, "w", strings.Trim(part, "{}")))
				} else {
					toks = append(toks, tk(i, part, "X"))
				}
			}
			require.Len(t, toks, n)

			alt := m.Create(def, toks[0], 0)
			require.NotNil(t, alt)
			assert.Equal(t, float64(n), alt.Threshold)
			for i := 1; i < n; i++ {
				assert.False(t, alt.Status.Finished(), "finished early at %d", i)
				alt = m.TryAdvance(alt, toks[i])
				require.NotNil(t, alt)
			}
			assert.Equal(t, Complete, alt.Status)
			assert.Equal(t, float64(n), alt.Activation)
			assert.Equal(t, 0, alt.Start)
			assert.Equal(t, n-1, alt.Current)
		})
	}
}

func TestManager_Create(t *testing.T) {
	m := NewManager(nil, 0)
	np := &construction.Definition{Name: "np", Type: construction.TypePhrasal, Pattern: `{DET} {NOUN}`, Priority: 60}

	alt := m.Create(np, tk(2, "the", "DET"), 2)
	require.NotNil(t, alt)
	assert.Equal(t, 1, alt.ID)
	assert.Equal(t, Pending, alt.Status)
	assert.Equal(t, []string{"{NOUN}"}, alt.ExpectedNext)
	assert.Equal(t, "np", alt.Name)
	assert.Equal(t, 60, alt.Priority)

	assert.Nil(t, m.Create(np, tk(2, "cat", "NOUN"), 2), "token cannot start the pattern")

	second := m.Create(np, tk(3, "a", "DET"), 3)
	require.NotNil(t, second)
	assert.Equal(t, 2, second.ID)

	single := m.Create(construction.Head("NOUN"), tk(4, "cat", "NOUN"), 4)
	require.NotNil(t, single)
	assert.Equal(t, Complete, single.Status)

	constrained := &construction.Definition{Name: "sg", Pattern: `{NOUN}`, Constraints: []construction.Constraint{
		{Type: construction.FeatureEquals, Feature: "Number", Value: "Sing"},
	}}
	plural := tk(0, "cats", "NOUN")
	plural.Features = map[string]string{"Number": "Plur"}
	assert.Nil(t, m.Create(constrained, plural, 0))
}

func TestManager_TryAdvance(t *testing.T) {
	m := NewManager(nil, 0)
	np := &construction.Definition{Name: "np", Type: construction.TypePhrasal, Pattern: `{DET} {NOUN}`, Priority: 60, Skippable: []string{"PUNCT"}}
	alt := m.Create(np, tk(0, "the", "DET"), 0)
	require.NotNil(t, alt)

	assert.Nil(t, m.TryAdvance(alt, tk(1, "runs", "VERB")))
	assert.Equal(t, Pending, alt.Status, "failed advance leaves the original untouched")

	skipped := m.TryAdvance(alt, tk(1, ",", "PUNCT"))
	require.NotNil(t, skipped)
	assert.Len(t, skipped.Matched, 1)
	assert.Equal(t, 1, skipped.Current)

	done := m.TryAdvance(skipped, tk(2, "cat", "NOUN"))
	require.NotNil(t, done)
	assert.Equal(t, Complete, done.Status)
	assert.Equal(t, []string{"the", "cat"}, token.Words(done.Matched))
	assert.Equal(t, alt.ID, done.ID)
	assert.Len(t, alt.Matched, 1)

	alt.Status = Abandoned
	assert.Nil(t, m.TryAdvance(alt, tk(1, "cat", "NOUN")))
}

func TestManager_TryAdvance_RequiresAdjacentToken(t *testing.T) {
	m := NewManager(nil, 0)
	np := &construction.Definition{Name: "np", Type: construction.TypePhrasal, Pattern: `a {NOUN}`, Priority: 60, Skippable: []string{"PUNCT"}}
	alt := m.Create(np, tk(0, "a", "DET"), 0)
	require.NotNil(t, alt)

	assert.Nil(t, m.TryAdvance(alt, tk(2, "cat", "NOUN")), "gap at 1")
	assert.Nil(t, m.TryAdvance(alt, tk(0, "cat", "NOUN")), "same position")
	assert.Nil(t, m.TryAdvance(alt, tk(3, ",", "PUNCT")), "skip across a gap")

	done := m.TryAdvance(alt, tk(1, "cat", "NOUN"))
	require.NotNil(t, done)
	assert.Equal(t, Complete, done.Status)
}

func TestManager_TryAdvance_MWELookahead(t *testing.T) {
	m := NewManager(nil, 0)
	mwe := &construction.Definition{Name: "goal_against", Type: construction.TypeMWE, Pattern: `goal against`, Priority: 150, LookaheadEnabled: true}
	alt := m.Create(mwe, tk(3, "goal", "NOUN"), 3)
	require.NotNil(t, alt)
	alt = m.TryAdvance(alt, tk(4, "against", "ADP"))
	require.NotNil(t, alt)
	assert.Equal(t, TentativeComplete, alt.Status)
	require.NotNil(t, alt.Lookahead)
	assert.Equal(t, 0, alt.Lookahead.Counter)

	mwe.LookaheadEnabled = false
	alt = m.Create(mwe, tk(3, "goal", "NOUN"), 3)
	alt = m.TryAdvance(alt, tk(4, "against", "ADP"))
	require.NotNil(t, alt)
	assert.Equal(t, Complete, alt.Status)
	assert.Nil(t, alt.Lookahead)
}

func TestManager_Prune(t *testing.T) {
	m := NewManager(nil, 0)
	q := NewQueue(
		&State{ID: 1, Priority: 60, Status: Abandoned},
		&State{ID: 2, Priority: 60, Status: Pending, Activation: 0, LastAdvanced: 0},
		&State{ID: 3, Priority: 60, Status: Pending, Activation: 1, LastAdvanced: 0},
		&State{ID: 4, Priority: 60, Status: Progressing, LastAdvanced: 0},
		&State{ID: 5, Priority: 60, Status: Aggregated},
		&State{ID: 6, Priority: 60, Status: Pending, Activation: 0, LastAdvanced: 5},
	)
	out, n := m.Prune(q, 10, DefaultMaxStaleness)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{3, 4, 6}, ids(out))

	out, n = m.PruneStale(q, 10, DefaultMaxStaleness)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{6}, ids(out))
}

func ids(q *Queue) []int {
	var out []int
	for _, st := range q.Items() {
		out = append(out, st.ID)
	}
	return out
}

func TestQueue_Order(t *testing.T) {
	q := NewQueue(
		&State{ID: 1, Priority: 30},
		&State{ID: 2, Priority: 60},
		&State{ID: 3, Priority: 30},
	)
	q.Push(&State{ID: 4, Priority: 60})
	q.Push(&State{ID: 5, Priority: 150})
	q.Push(&State{ID: 6, Priority: 30})
	assert.Equal(t, []int{5, 2, 4, 1, 3, 6}, ids(q))

	assert.True(t, q.Replace(&State{ID: 4, Priority: 60, Status: Complete}))
	st, ok := q.Get(4)
	require.True(t, ok)
	assert.Equal(t, Complete, st.Status)
	assert.Equal(t, 1, q.Count(Complete))
	assert.False(t, q.Replace(&State{ID: 99}))

	items := q.Items()
	items[0] = nil
	assert.NotNil(t, q.Items()[0])
}

func TestState_Span(t *testing.T) {
	a := &State{Start: 3, Current: 4}
	b := &State{Start: 4, Current: 6}
	c := &State{Start: 5, Current: 5}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 5, a.End())
}

func TestState_Nodes(t *testing.T) {
	st := &State{Nodes: []NodeRef{
		{ID: 1, CE: "head"},
		{ID: -1, CE: "subj", Ghost: true},
		{ID: -2, CE: "obj", Ghost: true, Expired: true},
		{ID: -3, CE: "mod", Ghost: true, IsFulfilled: true, FulfilledBy: 7},
	}}
	assert.True(t, st.HasCE("head"))
	assert.True(t, st.HasCE("subj"))
	assert.False(t, st.HasCE("obj"))
	assert.True(t, st.HasCE("mod"))
	assert.True(t, st.References(7))
	assert.False(t, st.References(8))

	last, ok := st.LastRealNode()
	require.True(t, ok)
	assert.Equal(t, 1, last.ID)

	clone := st.Clone()
	clone.Nodes[0].CE = "x"
	assert.Equal(t, "head", st.Nodes[0].CE)
}
