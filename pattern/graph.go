// Package pattern compiles construction patterns into node graphs and matches
// them against token sequences.
//
// Pattern syntax:
//
//	word        literal, matched case-insensitively against the token's word
//	"word"      quoted literal
//	{POS}       slot matching a part-of-speech tag
//	{POS:c}     slot with a feature constraint (Key=Value,...) or a named predicate
//	{*}         wildcard, consumes any one token
//	[X]         optional X
//	(A|B|C)     alternation
//	X+  X*      one or more, zero or more
package pattern

import (
	"fmt"
	"strings"
)

// NodeKind is the type of a graph node.
type NodeKind int

const (
	NodeStart NodeKind = iota
	NodeEnd
	NodeLiteral
	NodeSlot
	NodeWildcard
	NodeIntermediate
	NodeRepCheck
)

var nodeKindNames = [...]string{
	NodeStart:        "START",
	NodeEnd:          "END",
	NodeLiteral:      "LITERAL",
	NodeSlot:         "SLOT",
	NodeWildcard:     "WILDCARD",
	NodeIntermediate: "INTERMEDIATE",
	NodeRepCheck:     "REP_CHECK",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Consuming reports whether nodes of this kind consume one token.
func (k NodeKind) Consuming() bool {
	return k == NodeLiteral || k == NodeSlot || k == NodeWildcard
}

// Node is a vertex of a compiled pattern graph.
type Node struct {
	ID         int
	Kind       NodeKind
	Value      string // LITERAL: the word, lower-cased
	POS        string // SLOT: the part-of-speech tag
	Constraint string // SLOT: optional constraint text after the colon
}

func (n *Node) String() string {
	switch n.Kind {
	case NodeLiteral:
		return fmt.Sprintf("%d:%s(%q)", n.ID, n.Kind, n.Value)
	case NodeSlot:
		if n.Constraint != "" {
			return fmt.Sprintf("%d:%s(%s:%s)", n.ID, n.Kind, n.POS, n.Constraint)
		}
		return fmt.Sprintf("%d:%s(%s)", n.ID, n.Kind, n.POS)
	default:
		return fmt.Sprintf("%d:%s", n.ID, n.Kind)
	}
}

// Edge connects two nodes. Bypass edges skip optional material.
type Edge struct {
	From   int
	To     int
	Bypass bool
}

// Graph is a compiled pattern. Edges are only ever appended.
type Graph struct {
	Pattern string
	Nodes   []*Node
	Edges   []Edge
	Start   int
	End     int

	out map[int][]int // node id -> indices into Edges
}

// NewGraph returns an empty graph. Most callers use Compile instead.
func NewGraph() *Graph {
	return &Graph{out: make(map[int][]int), Start: -1, End: -1}
}

// AddNode appends a node and returns it. IDs follow insertion order.
func (g *Graph) AddNode(kind NodeKind) *Node {
	n := &Node{ID: len(g.Nodes), Kind: kind}
	g.Nodes = append(g.Nodes, n)
	switch kind {
	case NodeStart:
		g.Start = n.ID
	case NodeEnd:
		g.End = n.ID
	}
	return n
}

// AddEdge appends an edge from -> to.
func (g *Graph) AddEdge(from, to int, bypass bool) {
	g.out[from] = append(g.out[from], len(g.Edges))
	g.Edges = append(g.Edges, Edge{From: from, To: to, Bypass: bypass})
}

// Outgoing returns the edges leaving id, main-path edges before bypass edges,
// each group in insertion order.
func (g *Graph) Outgoing(id int) []Edge {
	idx := g.out[id]
	edges := make([]Edge, 0, len(idx))
	for _, i := range idx {
		if !g.Edges[i].Bypass {
			edges = append(edges, g.Edges[i])
		}
	}
	for _, i := range idx {
		if g.Edges[i].Bypass {
			edges = append(edges, g.Edges[i])
		}
	}
	return edges
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id int) *Node {
	if id < 0 || id >= len(g.Nodes) {
		return nil
	}
	return g.Nodes[id]
}

// ElementCount returns the number of consuming nodes (literals, slots, wildcards).
func (g *Graph) ElementCount() int {
	count := 0
	for _, n := range g.Nodes {
		if n.Kind.Consuming() {
			count++
		}
	}
	return count
}

// MinLength returns the number of tokens on the shortest START to END path,
// or -1 when END is unreachable.
func (g *Graph) MinLength() int {
	if g.Start < 0 || g.End < 0 {
		return -1
	}
	const inf = int(^uint(0) >> 1)
	dist := make([]int, len(g.Nodes))
	for i := range dist {
		dist[i] = inf
	}
	cost := func(id int) int {
		if g.Nodes[id].Kind.Consuming() {
			return 1
		}
		return 0
	}
	// 0-1 BFS over node weights.
	dist[g.Start] = cost(g.Start)
	deque := []int{g.Start}
	for len(deque) > 0 {
		id := deque[0]
		deque = deque[1:]
		for _, e := range g.Outgoing(id) {
			c := cost(e.To)
			if d := dist[id] + c; d < dist[e.To] {
				dist[e.To] = d
				if c == 0 {
					deque = append([]int{e.To}, deque...)
				} else {
					deque = append(deque, e.To)
				}
			}
		}
	}
	if dist[g.End] == inf {
		return -1
	}
	return dist[g.End]
}

// Threshold is the number of tokens an alternative for this pattern must
// match before it can be complete. It is never less than one.
//
// Threshold is the shortest START to END path, not ElementCount: optional
// and starred elements do not count toward it, so "{DET} [{ADJ}] {NOUN}" has
// three elements and a threshold of two.
func (g *Graph) Threshold() int {
	if n := g.MinLength(); n > 1 {
		return n
	}
	return 1
}

// Literals returns the distinct literal values of the graph in node order.
func (g *Graph) Literals() []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Kind == NodeLiteral && !seen[n.Value] {
			seen[n.Value] = true
			out = append(out, n.Value)
		}
	}
	return out
}

// SlotPOS returns the distinct slot tags of the graph in node order.
func (g *Graph) SlotPOS() []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Kind == NodeSlot && !seen[n.POS] {
			seen[n.POS] = true
			out = append(out, n.POS)
		}
	}
	return out
}

// HasWildcard reports whether the graph contains a wildcard node.
func (g *Graph) HasWildcard() bool {
	for _, n := range g.Nodes {
		if n.Kind == NodeWildcard {
			return true
		}
	}
	return false
}

// String renders the graph one node per line with its outgoing edges.
func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pattern %q\n", g.Pattern)
	for _, n := range g.Nodes {
		b.WriteString(n.String())
		for _, e := range g.Outgoing(n.ID) {
			if e.Bypass {
				fmt.Fprintf(&b, " ~>%d", e.To)
			} else {
				fmt.Fprintf(&b, " ->%d", e.To)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
