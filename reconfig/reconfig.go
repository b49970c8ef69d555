// Package reconfig rewires the token graph when a real node fulfils a ghost
// and re-evaluates the alternatives that depended on either.
package reconfig

import (
	"fmt"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/ghost"
	"github.com/dhamidi/cxg/parse"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.reconfig")

// Reconfigurator applies fulfilments to a parse.StateV5.
type Reconfigurator struct {
	Alternatives *alternative.Manager
}

// Result describes one fulfilment.
type Result struct {
	Ghost      *ghost.Ghost
	RealID     int
	Relinked   int
	Maintained []int
	Abandoned  []int
}

// AfterFulfillment offers the real node realID to the pending ghosts. When a
// compatible ghost created before position exists, the ghost is merged into
// the real node, its edges are moved over and it is marked fulfilled; every
// alternative referencing either node is then re-evaluated. Each step is
// recorded in the state's log. It reports false when no ghost was fulfilled.
func (r *Reconfigurator) AfterFulfillment(st *parse.StateV5, realID, position int) (Result, bool) {
	node, ok := st.Graph.Node(realID)
	if !ok || node.Ghost {
		return Result{}, false
	}
	candidate := ghost.Candidate{ID: realID, POS: node.POS, CE: node.CE, Features: node.Features}
	g := st.Ghosts.FindFulfillable(candidate, position)
	if g == nil {
		return Result{}, false
	}

	if _, err := st.Graph.Merge(g.ID, realID); err != nil {
		log.Debugf("%s: %s", g, err)
	}
	res := Result{Ghost: g, RealID: realID, Relinked: st.Graph.Relink(g.ID, realID)}
	if !st.Ghosts.Fulfill(g.ID, realID, position) {
		return Result{}, false
	}
	st.Record(parse.Operation{Kind: parse.OpGhostFulfilled, Position: position, GhostID: g.ID, NodeID: realID})
	if res.Relinked > 0 {
		st.Record(parse.Operation{Kind: parse.OpEdgesRelinked, Position: position, GhostID: g.ID, NodeID: realID, Edges: res.Relinked})
	}
	log.Debugf("position %d: %s fulfilled by node %d, %d edges relinked", position, g, realID, res.Relinked)

	affected := map[int]bool{g.ID: true, realID: true}
	for _, e := range st.Graph.EdgesOf(realID) {
		affected[e.From] = true
		affected[e.To] = true
	}

	for _, alt := range st.Queue.Items() {
		markFulfilled(alt, g.ID, realID)
		if !references(alt, affected) || !alt.Status.CanTransition(alternative.Abandoned) {
			continue
		}
		if ce, missing := missingElement(alt); missing {
			if err := r.Alternatives.Transition(alt, alternative.Abandoned); err != nil {
				log.Errorf("%s", err)
				continue
			}
			res.Abandoned = append(res.Abandoned, alt.ID)
			st.Record(parse.Operation{
				Kind: parse.OpAlternativeAbandoned, Position: position, GhostID: g.ID, NodeID: realID,
				Alternative: alt.ID, Reason: fmt.Sprintf("mandatory element %s missing", ce),
			})
			continue
		}
		res.Maintained = append(res.Maintained, alt.ID)
		st.Record(parse.Operation{
			Kind: parse.OpAlternativeMaintained, Position: position, GhostID: g.ID, NodeID: realID,
			Alternative: alt.ID, Reason: "mandatory elements present",
		})
	}
	return res, true
}

func markFulfilled(alt *alternative.State, ghostID, realID int) {
	for i := range alt.Nodes {
		n := &alt.Nodes[i]
		if n.Ghost && n.ID == ghostID {
			n.IsFulfilled = true
			n.FulfilledBy = realID
		}
	}
}

func references(alt *alternative.State, ids map[int]bool) bool {
	for id := range ids {
		if alt.References(id) {
			return true
		}
	}
	return false
}

// missingElement returns the first mandatory element alt has neither as a
// real node nor as a live ghost.
func missingElement(alt *alternative.State) (string, bool) {
	if alt.Construction == nil {
		return "", false
	}
	for _, ce := range alt.Construction.MandatoryElements {
		if !alt.HasCE(ce) {
			return ce, true
		}
	}
	return "", false
}
