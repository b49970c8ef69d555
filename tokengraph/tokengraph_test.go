package tokengraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Graph {
	g := New()
	g.AddNode(&Node{ID: 1, Word: "come", POS: "VERB", Position: 0})
	g.AddNode(&Node{ID: -1, CE: "subj", POS: "PRON", Ghost: true, Features: map[string]string{"Person": "3", "Number": "Sing"}})
	g.AddNode(&Node{ID: 2, Word: "Juan", POS: "PROPN", Position: 1, Features: map[string]string{"Number": "Sing", "Gender": "Masc"}})
	require.NoError(t, g.AddEdge(1, -1, "expects"))
	return g
}

func TestAddEdge_UnknownNode(t *testing.T) {
	g := sample(t)
	assert.Error(t, g.AddEdge(1, 9, "x"))
	assert.Error(t, g.AddEdge(9, 1, "x"))
}

func TestMergeAndRelink(t *testing.T) {
	g := sample(t)

	merged, err := g.Merge(-1, 2)
	require.NoError(t, err)
	assert.Equal(t, "PROPN", merged.POS, "real node properties win")
	assert.Equal(t, "subj", merged.CE, "ghost fills missing properties")
	assert.Equal(t, map[string]string{"Person": "3", "Number": "Sing", "Gender": "Masc"}, merged.Features)

	_, ok := g.Node(-1)
	assert.False(t, ok)

	assert.Equal(t, 1, g.Relink(-1, 2))
	assert.Equal(t, []Edge{{From: 1, To: 2, Type: "expects"}}, g.Edges())
	assert.Equal(t, 0, g.Relink(-1, 2))

	realNodes, ghosts := g.NodeCount()
	assert.Equal(t, 2, realNodes)
	assert.Equal(t, 0, ghosts)

	_, err = g.Merge(-5, 2)
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	g := sample(t)
	assert.True(t, g.Remove(1))
	assert.False(t, g.Remove(1))
	assert.Empty(t, g.Edges())
	assert.Len(t, g.Nodes(), 2)
	assert.Equal(t, -1, g.Nodes()[0].ID)
	assert.Empty(t, g.EdgesOf(-1))
}

func TestCollapse(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: 1, Word: "scored", POS: "VERB", Position: 0})
	g.AddNode(&Node{ID: 2, Word: "goal", POS: "NOUN", Position: 1})
	g.AddNode(&Node{ID: 3, Word: "against", POS: "ADP", Position: 2})
	g.AddNode(&Node{ID: -1, CE: "obj", Ghost: true})
	require.NoError(t, g.AddEdge(1, 2, "obj"))
	require.NoError(t, g.AddEdge(2, 3, "mod"))
	require.NoError(t, g.AddEdge(3, -1, "expects"))

	agg := &Node{ID: 7, Word: "goal against", Position: 1, Construction: "goal_against"}
	assert.Equal(t, 2, g.Collapse([]int{2, 3}, agg))
	assert.Equal(t, []Edge{{From: 1, To: 7, Type: "obj"}, {From: 7, To: -1, Type: "expects"}}, g.Edges())

	realNodes, ghosts := g.NodeCount()
	assert.Equal(t, 2, realNodes)
	assert.Equal(t, 1, ghosts)
	_, ok := g.Node(2)
	assert.False(t, ok)
	var ids []int
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int{1, -1, 7}, ids)
}
