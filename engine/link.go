package engine

import (
	"github.com/dhamidi/cxg/parse"
)

// LinkBuilder creates dependency edges among confirmed nodes. It is called
// once per position after completion and must not modify the node list.
type LinkBuilder interface {
	Build(st *parse.State, position int) []parse.Edge
}

// FeatureLinker links every node confirmed at a position to the nearest
// preceding node that does not overlap it, when their features are
// compatible enough.
type FeatureLinker struct {
	MinScore float64
}

func (l *FeatureLinker) Build(st *parse.State, position int) []parse.Edge {
	var edges []parse.Edge
	for _, n := range st.ConfirmedAt(position) {
		if hasOutgoing(st, n.ID) {
			continue
		}
		prev := nearestBefore(st, n)
		if prev == nil {
			continue
		}
		score := Compatibility(n.Features, prev.Features)
		if score < l.MinScore {
			log.Debugf("%s -> %s: compatibility %.2f below %.2f", n, prev, score, l.MinScore)
			continue
		}
		typ := n.Label()
		if typ == "" {
			typ = "dep"
		}
		edges = append(edges, parse.Edge{From: n.ID, To: prev.ID, Type: typ, Score: score})
	}
	return edges
}

func hasOutgoing(st *parse.State, id int) bool {
	for _, e := range st.Edges {
		if e.From == id {
			return true
		}
	}
	return false
}

// nearestBefore returns the node ending closest before n starts. Ties go to
// the wider node, then the earlier confirmed one.
func nearestBefore(st *parse.State, n *parse.Node) *parse.Node {
	var best *parse.Node
	for _, m := range st.Nodes {
		if m.ID == n.ID || m.End >= n.Start {
			continue
		}
		if best == nil || m.End > best.End || (m.End == best.End && m.Start < best.Start) {
			best = m
		}
	}
	return best
}

// Compatibility is the share of features present on both sides that agree.
// It is 0.5 when no feature is shared.
func Compatibility(a, b map[string]string) float64 {
	shared, equal := 0, 0
	for k, v := range a {
		w, ok := b[k]
		if !ok {
			continue
		}
		shared++
		if v == w {
			equal++
		}
	}
	if shared == 0 {
		return 0.5
	}
	return float64(equal) / float64(shared)
}
