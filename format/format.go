// Package format renders parse results for the command line.
package format

import (
	"encoding"

	"github.com/dhamidi/cxg/engine"
	"github.com/dhamidi/cxg/ghost"
	"github.com/dhamidi/cxg/parse"
	"github.com/dhamidi/cxg/tokengraph"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(r *Result) error
}

// Result is the printable outcome of one sentence. The V5 fields are empty
// for V4 parses; Matches is only set by batch detection.
type Result struct {
	Sentence int                        `json:"sentence"`
	Words    []string                   `json:"words"`
	Nodes    []*parse.Node              `json:"nodes,omitempty"`
	Edges    []parse.Edge               `json:"edges,omitempty"`
	Partials []parse.Partial            `json:"partials,omitempty"`
	Matches  []engine.ConstructionMatch `json:"matches,omitempty"`

	Ghosts     []*ghost.Ghost     `json:"ghosts,omitempty"`
	GhostStats *ghost.Stats       `json:"ghost_stats,omitempty"`
	GraphNodes []*tokengraph.Node `json:"graph_nodes,omitempty"`
	GraphEdges []tokengraph.Edge  `json:"graph_edges,omitempty"`
	Log        []parse.Operation  `json:"log,omitempty"`
	Snapshots  []parse.Snapshot   `json:"snapshots,omitempty"`
}

func words(st *parse.State) []string {
	out := make([]string, len(st.Tokens))
	for i, t := range st.Tokens {
		out[i] = t.Word
	}
	return out
}

// FromState builds the result of a V4 parse.
func FromState(sentence int, st *parse.State) *Result {
	return &Result{
		Sentence: sentence,
		Words:    words(st),
		Nodes:    st.Nodes,
		Edges:    st.Edges,
		Partials: st.Partials,
	}
}

// FromStateV5 builds the result of a V5 parse, including the ghost registry,
// the token graph and the reconfiguration log.
func FromStateV5(sentence int, st *parse.StateV5) *Result {
	r := FromState(sentence, st.State)
	r.Ghosts = st.Ghosts.All()
	stats := st.Ghosts.Stats()
	r.GhostStats = &stats
	r.GraphNodes = st.Graph.Nodes()
	r.GraphEdges = st.Graph.Edges()
	r.Log = st.Log
	r.Snapshots = st.Snapshots
	return r
}

// FromMatches builds the result of batch detection.
func FromMatches(sentence int, words []string, matches []engine.ConstructionMatch) *Result {
	return &Result{Sentence: sentence, Words: words, Matches: matches}
}
