// Package parse holds the per-sentence state accumulated by the parser
// engines: the active alternatives, confirmed nodes and edges, and the
// positions already claimed by finalized structures.
package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/token"
)

// Node is a confirmed structure spanning [Start, End].
type Node struct {
	ID            int                     `json:"id"`
	Construction  string                  `json:"construction"`
	Type          construction.Type       `json:"type"`
	Priority      int                     `json:"priority"`
	Start         int                     `json:"start"`
	End           int                     `json:"end"`
	Words         []string                `json:"words"`
	Text          string                  `json:"text"`
	CE            construction.CELabels   `json:"ce"`
	Labels        []string                `json:"labels,omitempty"`
	Features      map[string]string       `json:"features,omitempty"`
	Semantics     *construction.Semantics `json:"semantics,omitempty"`
	SemanticValue any                     `json:"semantic_value,omitempty"`
	Alternative   int                     `json:"alternative"`
	ConfirmedAt   int                     `json:"confirmed_at"`
}

func (n *Node) String() string {
	return fmt.Sprintf("%d:%s[%d,%d] %q", n.ID, n.Construction, n.Start, n.End, n.Text)
}

// Covers reports whether the node spans position p.
func (n *Node) Covers(p int) bool {
	return n.Start <= p && p <= n.End
}

// Label returns the construction-element label for the node's own tier.
func (n *Node) Label() string {
	switch n.Type {
	case construction.TypeClausal:
		return n.CE.Clausal
	case construction.TypeSentential:
		return n.CE.Sentential
	}
	return n.CE.Phrasal
}

// Edge is a dependency between two confirmed nodes.
type Edge struct {
	From  int     `json:"from"`
	To    int     `json:"to"`
	Type  string  `json:"type"`
	Score float64 `json:"score,omitempty"`
}

// Partial is a low-confidence record of an alternative that was still
// progressing when the input ended.
type Partial struct {
	Alternative  int      `json:"alternative"`
	Construction string   `json:"construction"`
	Start        int      `json:"start"`
	End          int      `json:"end"`
	Words        []string `json:"words"`
	Expected     []string `json:"expected,omitempty"`
	Confidence   float64  `json:"confidence"`
}

type span struct {
	name       string
	start, end int
}

// State is the mutable accumulator of one sentence parse. It is owned by a
// single engine run and is not safe for concurrent use.
type State struct {
	Tokens   []token.Token
	Queue    *alternative.Queue
	Nodes    []*Node
	Edges    []Edge
	Partials []Partial
	Position int
	Complete bool

	consumed map[construction.Type]map[int]int
	spans    map[span]int
	nextNode int
}

func NewState(tokens []token.Token) *State {
	return &State{
		Tokens:   tokens,
		Queue:    alternative.NewQueue(),
		Position: -1,
		consumed: make(map[construction.Type]map[int]int),
		spans:    make(map[span]int),
	}
}

// NextNodeID allocates a positive node id.
func (s *State) NextNodeID() int {
	s.nextNode++
	return s.nextNode
}

// IsConsumed reports whether position p is claimed by a confirmed structure
// of the given tier.
func (s *State) IsConsumed(tier construction.Type, p int) bool {
	_, ok := s.consumed[tier][p]
	return ok
}

// ConsumedBy returns the node that claimed position p at the given tier.
func (s *State) ConsumedBy(tier construction.Type, p int) (int, bool) {
	id, ok := s.consumed[tier][p]
	return id, ok
}

// SpanFree reports whether no position in [start, end] is consumed at tier.
func (s *State) SpanFree(tier construction.Type, start, end int) bool {
	for p := start; p <= end; p++ {
		if s.IsConsumed(tier, p) {
			return false
		}
	}
	return true
}

// HasSpan reports whether a node of the named construction already covers
// exactly [start, end].
func (s *State) HasSpan(name string, start, end int) bool {
	_, ok := s.spans[span{name, start, end}]
	return ok
}

// Confirm records n and claims its positions at n's tier. It fails when any
// position is already claimed at that tier or the same structure was
// confirmed before.
func (s *State) Confirm(n *Node) error {
	if s.HasSpan(n.Construction, n.Start, n.End) {
		return fmt.Errorf("%s[%d,%d] already confirmed", n.Construction, n.Start, n.End)
	}
	if !s.SpanFree(n.Type, n.Start, n.End) {
		return fmt.Errorf("%s[%d,%d] overlaps consumed %s positions", n.Construction, n.Start, n.End, n.Type)
	}
	tier := s.consumed[n.Type]
	if tier == nil {
		tier = make(map[int]int)
		s.consumed[n.Type] = tier
	}
	for p := n.Start; p <= n.End; p++ {
		tier[p] = n.ID
	}
	s.spans[span{n.Construction, n.Start, n.End}] = n.ID
	s.Nodes = append(s.Nodes, n)
	return nil
}

// Node returns the confirmed node with the given id.
func (s *State) Node(id int) (*Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// ConfirmedAt returns the nodes confirmed while processing position p.
func (s *State) ConfirmedAt(p int) []*Node {
	var out []*Node
	for _, n := range s.Nodes {
		if n.ConfirmedAt == p {
			out = append(out, n)
		}
	}
	return out
}

// NodesCovering returns the confirmed nodes spanning position p.
func (s *State) NodesCovering(p int) []*Node {
	var out []*Node
	for _, n := range s.Nodes {
		if n.Covers(p) {
			out = append(out, n)
		}
	}
	return out
}

// HasLabeledStructureAt reports whether a confirmed, CE-labelled non-MWE
// node spans position p.
func (s *State) HasLabeledStructureAt(p int) bool {
	for _, n := range s.NodesCovering(p) {
		if n.Type != construction.TypeMWE && !n.CE.Empty() {
			return true
		}
	}
	return false
}

// AddEdges appends edges whose endpoints are confirmed nodes and reports how
// many were added.
func (s *State) AddEdges(edges ...Edge) int {
	added := 0
	for _, e := range edges {
		if _, ok := s.Node(e.From); !ok {
			continue
		}
		if _, ok := s.Node(e.To); !ok {
			continue
		}
		s.Edges = append(s.Edges, e)
		added++
	}
	return added
}

// ConsumedPositions returns the positions claimed at a tier, ascending.
func (s *State) ConsumedPositions(tier construction.Type) []int {
	out := make([]int, 0, len(s.consumed[tier]))
	for p := range s.consumed[tier] {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Summary renders the confirmed nodes one per line.
func (s *State) Summary() string {
	var b strings.Builder
	for _, n := range s.Nodes {
		fmt.Fprintf(&b, "%s\n", n)
	}
	return b.String()
}
