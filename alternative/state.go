// Package alternative manages parse hypotheses ("alternatives"): partial
// matches of one construction that advance token by token.
package alternative

import (
	"fmt"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/token"
)

// LookaheadState is present only while an alternative is tentatively
// complete. Counter is the number of positions it has remained undecided.
type LookaheadState struct {
	Counter int `json:"counter"`
}

// NodeRef records a real or ghost node attached to an alternative.
type NodeRef struct {
	ID          int    `json:"id"`
	CE          string `json:"ce,omitempty"`
	POS         string `json:"pos,omitempty"`
	Position    int    `json:"position"`
	Ghost       bool   `json:"ghost,omitempty"`
	IsFulfilled bool   `json:"is_fulfilled,omitempty"`
	FulfilledBy int    `json:"fulfilled_by,omitempty"`
	Expired     bool   `json:"expired,omitempty"`
}

// State is one parse hypothesis. TryAdvance returns copies; only status
// transitions and node bookkeeping change a State in place.
type State struct {
	ID           int                      `json:"id"`
	Construction *construction.Definition `json:"-"`
	Name         string                   `json:"construction"`
	Type         construction.Type        `json:"type"`
	Priority     int                      `json:"priority"`

	Start   int           `json:"start"`
	Current int           `json:"current"`
	Matched []token.Token `json:"matched"`
	// ExpectedNext describes the elements that may follow.
	ExpectedNext []string `json:"expected_next,omitempty"`

	Activation float64 `json:"activation"`
	Threshold  float64 `json:"threshold"`
	Status     Status  `json:"status"`

	CreatedAt    int             `json:"created_at"`
	LastAdvanced int             `json:"last_advanced"`
	Lookahead    *LookaheadState `json:"lookahead,omitempty"`
	Nodes        []NodeRef       `json:"nodes,omitempty"`
}

func (s *State) String() string {
	return fmt.Sprintf("#%d %s [%d,%d] %s %.0f/%.0f", s.ID, s.Name, s.Start, s.Current, s.Status, s.Activation, s.Threshold)
}

// End is the position after the last covered token.
func (s *State) End() int {
	return s.Current + 1
}

// Len is the number of positions the alternative spans.
func (s *State) Len() int {
	return s.Current - s.Start + 1
}

// Overlaps reports whether the spans of s and o share a position.
func (s *State) Overlaps(o *State) bool {
	return s.Start <= o.Current && o.Start <= s.Current
}

// IsMWE reports whether the alternative's construction is a multi-word expression.
func (s *State) IsMWE() bool {
	return s.Type == construction.TypeMWE
}

// Clone returns a copy that shares no slices with s.
func (s *State) Clone() *State {
	c := *s
	c.Matched = append([]token.Token(nil), s.Matched...)
	c.ExpectedNext = append([]string(nil), s.ExpectedNext...)
	c.Nodes = append([]NodeRef(nil), s.Nodes...)
	if s.Lookahead != nil {
		la := *s.Lookahead
		c.Lookahead = &la
	}
	return &c
}

// HasCE reports whether label ce is covered by a real node, a fulfilled ghost
// or a ghost still waiting for fulfilment. Expired ghosts cover nothing.
func (s *State) HasCE(ce string) bool {
	for _, n := range s.Nodes {
		if n.CE == ce && !n.Expired {
			return true
		}
	}
	return false
}

// LastRealNode returns the most recently attached real node.
func (s *State) LastRealNode() (NodeRef, bool) {
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		if !s.Nodes[i].Ghost {
			return s.Nodes[i], true
		}
	}
	return NodeRef{}, false
}

// References reports whether a node with the given id is attached.
func (s *State) References(id int) bool {
	for _, n := range s.Nodes {
		if n.ID == id || (n.Ghost && n.IsFulfilled && n.FulfilledBy == id) {
			return true
		}
	}
	return false
}
