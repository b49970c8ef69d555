// Package tokengraph holds the mutable graph of real and ghost nodes built
// while one sentence is parsed.
package tokengraph

import (
	"fmt"
	"maps"
	"slices"
)

// Node is a real token node (positive id) or a ghost placeholder (negative id).
type Node struct {
	ID       int               `json:"id"`
	Word     string            `json:"word,omitempty"`
	Lemma    string            `json:"lemma,omitempty"`
	POS      string            `json:"pos,omitempty"`
	CE       string            `json:"ce,omitempty"`
	Position int               `json:"position"`
	Features map[string]string `json:"features,omitempty"`
	Ghost    bool              `json:"ghost,omitempty"`
	// Construction names the expression an aggregate node stands for.
	Construction string `json:"construction,omitempty"`
}

func (n *Node) String() string {
	if n.Ghost {
		return fmt.Sprintf("ghost(%d,%s)", n.ID, n.CE)
	}
	return fmt.Sprintf("%d:%s/%s", n.ID, n.Word, n.POS)
}

// Edge is a directed, typed edge between two nodes.
type Edge struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Type string `json:"type"`
}

// Graph is not safe for concurrent use; it belongs to a single parse.
type Graph struct {
	nodes map[int]*Node
	order []int
	edges []Edge
}

func New() *Graph {
	return &Graph{nodes: make(map[int]*Node)}
}

// AddNode inserts n, replacing any node with the same id.
func (g *Graph) AddNode(n *Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

// AddEdge appends an edge. Both endpoints must exist.
func (g *Graph) AddEdge(from, to int, typ string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("edge %d->%d: unknown node %d", from, to, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("edge %d->%d: unknown node %d", from, to, to)
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Type: typ})
	return nil
}

func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// EdgesOf returns the edges touching id.
func (g *Graph) EdgesOf(id int) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == id || e.To == id {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of real and ghost nodes.
func (g *Graph) NodeCount() (realNodes, ghosts int) {
	for _, n := range g.nodes {
		if n.Ghost {
			ghosts++
		} else {
			realNodes++
		}
	}
	return realNodes, ghosts
}

func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Merge absorbs the ghost into the real node. Properties the real node
// already has win; the ghost contributes only what is missing. The ghost node
// is removed, but its edges are left for Relink.
func (g *Graph) Merge(ghostID, realID int) (*Node, error) {
	ghost, ok := g.nodes[ghostID]
	if !ok {
		return nil, fmt.Errorf("merge: unknown node %d", ghostID)
	}
	target, ok := g.nodes[realID]
	if !ok {
		return nil, fmt.Errorf("merge: unknown node %d", realID)
	}

	if target.CE == "" {
		target.CE = ghost.CE
	}
	if target.POS == "" {
		target.POS = ghost.POS
	}
	if len(ghost.Features) > 0 {
		merged := maps.Clone(ghost.Features)
		maps.Copy(merged, target.Features)
		target.Features = merged
	}

	delete(g.nodes, ghostID)
	g.order = slices.DeleteFunc(g.order, func(id int) bool { return id == ghostID })
	return target, nil
}

// Relink redirects every edge endpoint equal to from onto to and returns the
// number of edges touched.
func (g *Graph) Relink(from, to int) int {
	touched := 0
	for i := range g.edges {
		e := &g.edges[i]
		changed := false
		if e.From == from {
			e.From = to
			changed = true
		}
		if e.To == from {
			e.To = to
			changed = true
		}
		if changed {
			touched++
		}
	}
	return touched
}

// Remove deletes a node and every edge touching it. It reports whether the
// node existed.
func (g *Graph) Remove(id int) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(n int) bool { return n == id })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	return true
}

// Collapse replaces the component nodes ids with into. Edges touching a
// component are redirected onto into; edges between two components are
// dropped. It returns the number of edges redirected.
func (g *Graph) Collapse(ids []int, into *Node) int {
	g.AddNode(into)
	component := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id != into.ID {
			component[id] = true
		}
	}

	touched := 0
	edges := g.edges[:0]
	for _, e := range g.edges {
		from, to := component[e.From], component[e.To]
		if from && to {
			continue
		}
		if from {
			e.From = into.ID
		}
		if to {
			e.To = into.ID
		}
		if from || to {
			touched++
		}
		edges = append(edges, e)
	}
	g.edges = edges

	for id := range component {
		delete(g.nodes, id)
	}
	g.order = slices.DeleteFunc(g.order, func(id int) bool { return component[id] })
	return touched
}
