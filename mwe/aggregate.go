package mwe

import (
	"fmt"
	"maps"
	"strings"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/parse"
	"github.com/dhamidi/cxg/token"
)

// Strategy selects which components of an invalidated expression are
// re-exposed as single-token alternatives.
type Strategy string

const (
	PreserveAll    Strategy = "all"
	PreserveLast   Strategy = "last"
	PreserveHybrid Strategy = "hybrid"
)

// ParseStrategy accepts "all", "last" or "hybrid"; empty means hybrid.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case PreserveAll:
		return PreserveAll, nil
	case PreserveLast:
		return PreserveLast, nil
	case PreserveHybrid, "":
		return PreserveHybrid, nil
	}
	return "", fmt.Errorf("unknown preservation strategy %q", s)
}

// Aggregator turns expressions into nodes and re-exposes components of
// rejected ones.
type Aggregator struct {
	Alternatives *alternative.Manager
}

// Aggregate confirms one node spanning alt. Component features are merged in
// order, later components overwriting earlier ones.
func (a *Aggregator) Aggregate(st *parse.State, alt *alternative.State, def *construction.Definition, position int) (*parse.Node, error) {
	words := token.Words(alt.Matched)
	text := def.AggregateAs
	if text == "" {
		text = strings.Join(words, " ")
	}

	features := make(map[string]string)
	for _, tok := range alt.Matched {
		maps.Copy(features, tok.Features)
	}
	maps.Copy(features, def.Features)

	node := &parse.Node{
		ID:           st.NextNodeID(),
		Construction: def.Name,
		Type:         def.Type,
		Priority:     def.Priority,
		Start:        alt.Start,
		End:          alt.Current,
		Words:        words,
		Text:         text,
		CE:           def.CE,
		Features:     features,
		Semantics:    def.Semantics,
		Alternative:  alt.ID,
		ConfirmedAt:  position,
	}
	if err := st.Confirm(node); err != nil {
		return nil, err
	}
	log.Debugf("aggregated %s as %q [%d,%d]", def.Name, text, node.Start, node.End)
	return node, nil
}

// Preserve re-exposes components of an invalidated expression as complete
// HEAD_<POS> alternatives and pushes them onto the state's queue.
//
// With PreserveLast only the final component is re-exposed, with PreserveAll
// every one. PreserveHybrid always re-exposes the final component and the
// others only where no confirmed, labelled non-MWE structure already covers
// the position. Positions already claimed are never re-exposed.
func (a *Aggregator) Preserve(st *parse.State, alt *alternative.State, strategy Strategy) []*alternative.State {
	var out []*alternative.State
	n := len(alt.Matched)
	for i, tok := range alt.Matched {
		last := i == n-1
		switch strategy {
		case PreserveLast:
			if !last {
				continue
			}
		case PreserveHybrid, "":
			if !last && st.HasLabeledStructureAt(tok.Position) {
				continue
			}
		}
		if st.IsConsumed(construction.TypeMWE, tok.Position) || st.IsConsumed(construction.TypePhrasal, tok.Position) {
			continue
		}
		head := a.Alternatives.Create(construction.Head(tok.POS), tok, tok.Position)
		if head == nil {
			continue
		}
		st.Queue.Push(head)
		out = append(out, head)
	}
	log.Debugf("preserved %d of %d components of %s (%s)", len(out), n, alt.Name, strategy)
	return out
}
