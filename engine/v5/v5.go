// Package v5 extends the incremental parser with ghost nodes: placeholders
// for mandatory elements a construction has not seen, fulfilled by later
// tokens or expired when they grow too old.
package v5

import (
	"fmt"
	"strings"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/engine"
	"github.com/dhamidi/cxg/ghost"
	"github.com/dhamidi/cxg/parse"
	"github.com/dhamidi/cxg/reconfig"
	"github.com/dhamidi/cxg/registry"
	"github.com/dhamidi/cxg/token"
	"github.com/dhamidi/cxg/tokengraph"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.engine.v5")

// EdgeExpects links an alternative's last real node to a ghost it expects.
const EdgeExpects = "expects"

type Engine struct {
	*engine.Engine
}

func New(reg registry.Registry, cfg engine.Config) *Engine {
	return &Engine{Engine: engine.New(reg, cfg)}
}

func (e *Engine) Parse(tokens []token.Token) (*parse.StateV5, error) {
	if e.Registry == nil {
		return nil, engine.ErrNoRegistry
	}
	s := e.NewSession(tokens)
	for p := range tokens {
		s.Step(p)
	}
	s.Finalize()
	log.Infof("parsed %s, %d ghosts, %d operations", engine.Summary(s.State.State), len(s.State.Ghosts.All()), len(s.State.Log))
	return s.State, nil
}

// Session is one V5 parse. The V4 phases run on the embedded session; the
// ghost phases work on State.
type Session struct {
	*engine.Session
	State    *parse.StateV5
	Reconfig *reconfig.Reconfigurator
}

func (e *Engine) NewSession(tokens []token.Token) *Session {
	st := parse.NewStateV5(tokens)
	base := e.Engine.NewSession(st.State)
	base.Retain = retained
	s := &Session{
		Session:  base,
		State:    st,
		Reconfig: &reconfig.Reconfigurator{Alternatives: base.Alternatives},
	}
	base.Aggregated = s.aggregated
	return s
}

// retained keeps complete and pending alternatives across a failed advance
// so that ghost detection can still inspect them.
func retained(alt *alternative.State) bool {
	switch alt.Status {
	case alternative.Complete, alternative.Pending, alternative.TentativeComplete:
		return true
	}
	return false
}

// Step runs the nine phases for position p.
func (s *Session) Step(p int) {
	s.State.Position = p
	realID := s.wrapToken(p)

	s.Instantiate(p)
	s.Update(p)
	s.State.Queue = s.State.Queue.Filter(func(alt *alternative.State) bool {
		return alt.Status != alternative.Abandoned
	})
	s.attach(p, realID)

	s.DetectGhosts(p)
	s.FulfillGhosts(p, realID)
	s.Complete(p, false)
	s.ExpireGhosts(p)
	s.Link(p)
	s.Prune(p)
	snap := s.State.TakeSnapshot(p)
	log.Debugf("position %d: %d alternatives, %d nodes, ghosts %+v, %d ops", p, snap.Alternatives, snap.Nodes, snap.Ghosts, snap.OpsSinceLast)
}

// wrapToken adds the token at p to the token graph as a real node.
func (s *Session) wrapToken(p int) int {
	tok := s.State.Tokens[p]
	id := s.State.NextNodeID()
	s.State.TokenNodes[p] = id
	s.State.Graph.AddNode(&tokengraph.Node{
		ID:       id,
		Word:     tok.Word,
		Lemma:    tok.Lemma,
		POS:      tok.POS,
		Position: p,
		Features: tok.Features,
	})
	return id
}

// attach records the real node on every alternative that matched the token
// at p. The graph node takes the label given by the first such alternative
// in queue order.
func (s *Session) attach(p, realID int) {
	node, _ := s.State.Graph.Node(realID)
	for _, alt := range s.State.Queue.Items() {
		n := len(alt.Matched)
		if n == 0 || alt.Matched[n-1].Position != p || alt.References(realID) {
			continue
		}
		tok := alt.Matched[n-1]
		ce := alt.Construction.LabelFor(tok)
		alt.Nodes = append(alt.Nodes, alternative.NodeRef{ID: realID, CE: ce, POS: tok.POS, Position: p})
		if node != nil && node.CE == "" {
			node.CE = ce
		}
	}
}

// aggregated collapses the real nodes of an expression's tokens into one
// graph node carrying the id of the confirmed node. References held by
// queued alternatives follow the collapse.
func (s *Session) aggregated(alt *alternative.State, n *parse.Node, p int) {
	ids := make([]int, 0, len(alt.Matched))
	lemmas := make([]string, 0, len(alt.Matched))
	component := make(map[int]bool, len(alt.Matched))
	for _, tok := range alt.Matched {
		id, ok := s.State.TokenNodes[tok.Position]
		if !ok {
			continue
		}
		ids = append(ids, id)
		component[id] = true
		lemmas = append(lemmas, tok.Lemma)
		s.State.TokenNodes[tok.Position] = n.ID
	}
	if len(ids) == 0 {
		return
	}

	relinked := s.State.Graph.Collapse(ids, &tokengraph.Node{
		ID:           n.ID,
		Word:         n.Text,
		Lemma:        strings.Join(lemmas, " "),
		Position:     n.Start,
		Features:     n.Features,
		Construction: n.Construction,
	})
	for _, other := range s.State.Queue.Items() {
		for i := range other.Nodes {
			if !other.Nodes[i].Ghost && component[other.Nodes[i].ID] {
				other.Nodes[i].ID = n.ID
			}
		}
	}
	s.State.Record(parse.Operation{
		Kind:        parse.OpNodesAggregated,
		Position:    p,
		NodeID:      n.ID,
		Alternative: alt.ID,
		Edges:       relinked,
		Reason:      fmt.Sprintf("%s over %d tokens", n.Construction, len(ids)),
	})
	log.Debugf("position %d: %d token nodes collapsed into %d (%s)", p, len(ids), n.ID, n.Construction)
}

// DetectGhosts creates a ghost for every mandatory element an active
// alternative lacks, unless one is already pending for it or an earlier
// ghost for it expired.
func (s *Session) DetectGhosts(p int) int {
	created := 0
	for _, alt := range s.State.Queue.Items() {
		if !alt.Status.Advanceable() || alt.Construction == nil {
			continue
		}
		def := alt.Construction
		for _, ce := range def.MandatoryElements {
			if alt.HasCE(ce) || expiredGhost(alt, ce) || s.State.Ghosts.PendingFor(alt.ID, ce) {
				continue
			}
			var expected []string
			if pos := def.ExpectedPOS(ce); pos != "" {
				expected = []string{pos}
			}
			g := s.State.Ghosts.Create(ghost.Spec{
				Position:     p,
				Alternative:  alt.ID,
				Construction: def.Name,
				ExpectedCE:   ce,
				ExpectedPOS:  expected,
			})
			ref := alternative.NodeRef{ID: g.ID, CE: ce, Position: p, Ghost: true}
			if len(expected) > 0 {
				ref.POS = expected[0]
			}
			s.State.Graph.AddNode(&tokengraph.Node{ID: g.ID, CE: ce, POS: ref.POS, Position: p, Ghost: true})

			op := parse.Operation{
				Kind: parse.OpGhostCreated, Position: p, GhostID: g.ID, Alternative: alt.ID,
				Reason: fmt.Sprintf("%s lacks mandatory element %s", def.Name, ce),
			}
			if last, ok := alt.LastRealNode(); ok {
				if err := s.State.Graph.AddEdge(last.ID, g.ID, EdgeExpects); err != nil {
					log.Debugf("%s", err)
				} else {
					op.NodeID = last.ID
				}
			}
			alt.Nodes = append(alt.Nodes, ref)
			s.State.Record(op)
			created++
			log.Debugf("position %d: %s for %s", p, g, alt)
		}
	}
	return created
}

func expiredGhost(alt *alternative.State, ce string) bool {
	for _, n := range alt.Nodes {
		if n.Ghost && n.Expired && n.CE == ce {
			return true
		}
	}
	return false
}

// FulfillGhosts offers the real node of position p to the pending ghosts.
func (s *Session) FulfillGhosts(p, realID int) bool {
	res, ok := s.Reconfig.AfterFulfillment(s.State, realID, p)
	if ok {
		log.Debugf("position %d: ghost %d fulfilled, %d maintained, %d abandoned", p, res.Ghost.ID, len(res.Maintained), len(res.Abandoned))
	}
	return ok
}

// ExpireGhosts expires pending ghosts older than MaxGhostAge positions.
func (s *Session) ExpireGhosts(p int) int {
	expired := s.State.Ghosts.ExpireStale(p-s.Engine.Config.MaxGhostAge, p)
	s.expired(expired, p, "older than max ghost age")
	return len(expired)
}

func (s *Session) expired(ghosts []*ghost.Ghost, p int, reason string) {
	for _, g := range ghosts {
		for _, alt := range s.State.Queue.Items() {
			for i := range alt.Nodes {
				if alt.Nodes[i].Ghost && alt.Nodes[i].ID == g.ID {
					alt.Nodes[i].Expired = true
				}
			}
		}
		s.State.Graph.Remove(g.ID)
		s.State.Record(parse.Operation{Kind: parse.OpGhostExpired, Position: p, GhostID: g.ID, Alternative: g.CreatedByAlternative, Reason: reason})
	}
}

// Prune drops finished alternatives and any incomplete one that has not
// progressed for MaxStaleness positions.
func (s *Session) Prune(p int) int {
	q, n := s.Alternatives.PruneStale(s.State.Queue, p, s.Engine.Config.MaxStaleness)
	s.State.Queue = q
	return n
}

// Finalize completes the parse and expires every ghost still pending.
func (s *Session) Finalize() {
	s.Session.Finalize()
	last := max(len(s.State.Tokens)-1, 0)
	s.expired(s.State.Ghosts.ExpirePending(last), last, "end of sentence")
	s.State.Complete = true
}
