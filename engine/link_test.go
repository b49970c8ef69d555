package engine

import (
	"testing"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatibility(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]string
		want float64
	}{
		{"nothing shared", map[string]string{"Number": "Sing"}, map[string]string{"Case": "Nom"}, 0.5},
		{"empty", nil, nil, 0.5},
		{"agree", map[string]string{"Number": "Sing"}, map[string]string{"Number": "Sing"}, 1},
		{"half", map[string]string{"Number": "Sing", "Case": "Nom"}, map[string]string{"Number": "Sing", "Case": "Acc"}, 0.5},
		{"disagree", map[string]string{"Number": "Sing"}, map[string]string{"Number": "Plur"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compatibility(tt.a, tt.b))
		})
	}
}

func TestFeatureLinker(t *testing.T) {
	st := parse.NewState(nil)
	add := func(name string, start, end, at int, feats map[string]string) *parse.Node {
		n := &parse.Node{
			ID: st.NextNodeID(), Construction: name, Type: construction.TypePhrasal,
			Start: start, End: end, ConfirmedAt: at, Features: feats,
			CE: construction.CELabels{Phrasal: name},
		}
		require.NoError(t, st.Confirm(n))
		return n
	}
	subj := add("subj", 0, 1, 1, map[string]string{"Number": "Sing"})
	verb := add("pred", 2, 2, 2, map[string]string{"Number": "Sing"})
	obj := add("obj", 3, 3, 3, map[string]string{"Number": "Plur"})

	l := &FeatureLinker{MinScore: 0.5}
	assert.Empty(t, l.Build(st, 1), "nothing precedes the first node")

	edges := l.Build(st, 2)
	require.Len(t, edges, 1)
	assert.Equal(t, parse.Edge{From: verb.ID, To: subj.ID, Type: "pred", Score: 1}, edges[0])
	st.AddEdges(edges...)
	assert.Empty(t, l.Build(st, 2), "linked nodes are not linked again")

	assert.Empty(t, l.Build(st, 3), "incompatible features")
	l.MinScore = 0
	edges = l.Build(st, 3)
	require.Len(t, edges, 1)
	assert.Equal(t, obj.ID, edges[0].From)
	assert.Equal(t, verb.ID, edges[0].To)
}
