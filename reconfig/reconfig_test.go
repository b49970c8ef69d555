package reconfig

import (
	"testing"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/ghost"
	"github.com/dhamidi/cxg/parse"
	"github.com/dhamidi/cxg/token"
	"github.com/dhamidi/cxg/tokengraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(ops []parse.Operation) []string {
	var out []string
	for _, op := range ops {
		out = append(out, op.Kind)
	}
	return out
}

func TestAfterFulfillment(t *testing.T) {
	toks := []token.Token{
		{Word: "runs", Lemma: "run", POS: "VERB", Position: 0},
		{Word: "quickly", Lemma: "quickly", POS: "ADV", Position: 1},
		{Word: "she", Lemma: "she", POS: "PRON", Position: 2},
	}
	st := parse.NewStateV5(toks)

	verbID := st.NextNodeID()
	st.Graph.AddNode(&tokengraph.Node{ID: verbID, Word: "runs", POS: "VERB", CE: "pred", Position: 0})
	g := st.Ghosts.Create(ghost.Spec{Position: 0, Alternative: 1, Construction: "clause", ExpectedCE: "subj"})
	st.Graph.AddNode(&tokengraph.Node{ID: g.ID, CE: "subj", Position: 0, Ghost: true, Features: map[string]string{"Person": "3"}})
	require.NoError(t, st.Graph.AddEdge(verbID, g.ID, "expects"))

	clause := &alternative.State{
		ID:           1,
		Construction: &construction.Definition{Name: "clause", MandatoryElements: []string{"pred", "subj"}},
		Status:       alternative.Progressing,
		Nodes: []alternative.NodeRef{
			{ID: verbID, CE: "pred", POS: "VERB"},
			{ID: g.ID, CE: "subj", Ghost: true},
		},
	}
	transitive := &alternative.State{
		ID:           2,
		Construction: &construction.Definition{Name: "transitive", MandatoryElements: []string{"pred", "obj"}},
		Status:       alternative.Progressing,
		Nodes:        []alternative.NodeRef{{ID: verbID, CE: "pred", POS: "VERB"}},
	}
	unrelated := &alternative.State{
		ID:           3,
		Construction: &construction.Definition{Name: "adv", MandatoryElements: []string{"mod"}},
		Status:       alternative.Progressing,
	}
	st.Queue = alternative.NewQueue(clause, transitive, unrelated)

	realID := st.NextNodeID()
	st.Graph.AddNode(&tokengraph.Node{ID: realID, Word: "she", POS: "PRON", Position: 2, Features: map[string]string{"Person": "1"}})

	r := &Reconfigurator{Alternatives: alternative.NewManager(nil, 0)}
	assert.False(t, func() bool { _, ok := r.AfterFulfillment(st, realID, 0); return ok }(), "ghosts are not fulfilled by earlier tokens")

	res, ok := r.AfterFulfillment(st, realID, 2)
	require.True(t, ok)
	assert.Equal(t, g.ID, res.Ghost.ID)
	assert.Equal(t, 1, res.Relinked)
	assert.Equal(t, []int{1}, res.Maintained)
	assert.Equal(t, []int{2}, res.Abandoned)

	assert.Equal(t, ghost.Fulfilled, g.State)
	assert.Equal(t, realID, g.FulfilledBy)
	_, ghostInGraph := st.Graph.Node(g.ID)
	assert.False(t, ghostInGraph)
	merged, _ := st.Graph.Node(realID)
	assert.Equal(t, "subj", merged.CE, "the ghost fills in what the real node lacks")
	assert.Equal(t, "1", merged.Features["Person"], "real properties win")
	assert.Equal(t, []tokengraph.Edge{{From: verbID, To: realID, Type: "expects"}}, st.Graph.Edges())

	assert.True(t, clause.Nodes[1].IsFulfilled)
	assert.Equal(t, realID, clause.Nodes[1].FulfilledBy)
	assert.Equal(t, alternative.Progressing, clause.Status)
	assert.Equal(t, alternative.Abandoned, transitive.Status)
	assert.Equal(t, alternative.Progressing, unrelated.Status)

	assert.Equal(t, []string{
		parse.OpGhostFulfilled, parse.OpEdgesRelinked, parse.OpAlternativeMaintained, parse.OpAlternativeAbandoned,
	}, kinds(st.Log))
	assert.Equal(t, "mandatory element obj missing", st.Log[3].Reason)

	_, ok = r.AfterFulfillment(st, realID, 2)
	assert.False(t, ok, "a ghost is fulfilled once")
	assert.Len(t, st.Log, 4)
}

func TestAfterFulfillment_Incompatible(t *testing.T) {
	st := parse.NewStateV5(nil)
	st.Ghosts.Create(ghost.Spec{Position: 0, ExpectedCE: "subj"})
	id := st.NextNodeID()
	st.Graph.AddNode(&tokengraph.Node{ID: id, Word: "quickly", POS: "ADV", Position: 1})

	r := &Reconfigurator{Alternatives: alternative.NewManager(nil, 0)}
	_, ok := r.AfterFulfillment(st, id, 1)
	assert.False(t, ok)
	assert.Empty(t, st.Log)

	_, ok = r.AfterFulfillment(st, 42, 1)
	assert.False(t, ok, "unknown node")
}
