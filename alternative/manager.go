package alternative

import (
	"fmt"

	"github.com/dhamidi/cxg/constraint"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/pattern"
	"github.com/dhamidi/cxg/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.alternative")

// DefaultMaxStaleness is the number of positions a pending alternative may go
// without progress before it is pruned.
const DefaultMaxStaleness = 5

// GraphSource resolves the compiled pattern of a construction.
type GraphSource interface {
	Graph(def *construction.Definition) (*pattern.Graph, error)
}

type cacheSource struct {
	cache *pattern.Cache
}

func (c cacheSource) Graph(def *construction.Definition) (*pattern.Graph, error) {
	return c.cache.Get(def.Pattern)
}

// Manager creates and advances alternatives. It owns the alternative id
// counter, so each parse should use its own Manager.
type Manager struct {
	graphs  GraphSource
	matcher *pattern.Matcher
	checker constraint.Checker
	nextID  int
}

// NewManager creates a manager. A nil graphs compiles patterns on demand into
// a private cache. maxDepth is the matcher's recursion ceiling.
func NewManager(graphs GraphSource, maxDepth int) *Manager {
	if graphs == nil {
		graphs = cacheSource{cache: pattern.NewCache()}
	}
	return &Manager{graphs: graphs, matcher: pattern.NewMatcher(maxDepth)}
}

// Matcher returns the matcher used for advancing alternatives.
func (m *Manager) Matcher() *pattern.Matcher {
	return m.matcher
}

// Graph returns the compiled pattern of def.
func (m *Manager) Graph(def *construction.Definition) (*pattern.Graph, error) {
	return m.graphs.Graph(def)
}

// Create starts an alternative for def with tok as its first element. It
// returns nil when tok cannot start the pattern or violates a constraint.
func (m *Manager) Create(def *construction.Definition, tok token.Token, position int) *State {
	g, err := m.graphs.Graph(def)
	if err != nil {
		log.Warningf("construction %s: %s", def.Name, err)
		return nil
	}
	matched := []token.Token{tok}
	prefix, complete := m.matcher.Accepts(g, matched)
	if !prefix {
		return nil
	}
	if !m.checker.Check(def, nil, tok).Valid {
		return nil
	}

	m.nextID++
	st := &State{
		ID:           m.nextID,
		Construction: def,
		Name:         def.Name,
		Type:         def.Type,
		Priority:     def.Priority,
		Start:        position,
		Current:      position,
		Matched:      matched,
		Activation:   1,
		Threshold:    float64(g.Threshold()),
		Status:       Pending,
		CreatedAt:    position,
		LastAdvanced: position,
	}
	m.settle(st, g, complete)
	if st.Status == Progressing {
		st.Status = Pending
	}
	return st
}

// TryAdvance returns a copy of alt extended by tok, or nil when tok does not
// continue the pattern or fails a constraint. A token whose tag the
// construction lists as skippable yields a copy that covers the position
// without matching it. tok must directly follow the last covered position.
func (m *Manager) TryAdvance(alt *State, tok token.Token) *State {
	if !alt.Status.Advanceable() || alt.Construction == nil {
		return nil
	}
	if tok.Position != alt.Current+1 {
		return nil
	}
	def := alt.Construction
	g, err := m.graphs.Graph(def)
	if err != nil {
		return nil
	}

	candidate := append(append([]token.Token(nil), alt.Matched...), tok)
	prefix, complete := m.matcher.Accepts(g, candidate)
	if !prefix || !m.checker.Check(def, alt.Matched, tok).Valid {
		if def.CanSkip(tok) && !alt.Status.Finished() {
			skipped := alt.Clone()
			skipped.Current = tok.Position
			skipped.LastAdvanced = tok.Position
			return skipped
		}
		return nil
	}

	next := alt.Clone()
	next.Matched = candidate
	next.Current = tok.Position
	next.LastAdvanced = tok.Position
	next.Activation++
	m.settle(next, g, complete)
	return next
}

// settle derives the status after the matched tokens changed.
func (m *Manager) settle(st *State, g *pattern.Graph, complete bool) {
	st.ExpectedNext = st.ExpectedNext[:0]
	for _, n := range m.matcher.Expect(g, st.Matched) {
		st.ExpectedNext = append(st.ExpectedNext, describe(n))
	}

	if !complete || st.Activation < st.Threshold {
		st.Status = Progressing
		st.Lookahead = nil
		return
	}
	def := st.Construction
	if def.IsMWE() && def.LookaheadEnabled {
		st.Status = TentativeComplete
		st.Lookahead = &LookaheadState{}
		return
	}
	st.Status = Complete
	st.Lookahead = nil
}

func describe(n *pattern.Node) string {
	switch n.Kind {
	case pattern.NodeLiteral:
		return fmt.Sprintf("%q", n.Value)
	case pattern.NodeSlot:
		return "{" + n.POS + "}"
	default:
		return "{*}"
	}
}

// Transition moves alt to status to, or returns ErrIllegalTransition.
func (m *Manager) Transition(alt *State, to Status) error {
	if !alt.Status.CanTransition(to) {
		return fmt.Errorf("%w: alternative %d %s -> %s", ErrIllegalTransition, alt.ID, alt.Status, to)
	}
	alt.Status = to
	switch to {
	case TentativeComplete:
		if alt.Lookahead == nil {
			alt.Lookahead = &LookaheadState{}
		}
	default:
		alt.Lookahead = nil
	}
	return nil
}

// Prune drops abandoned, aggregated and confirmed alternatives, and pending
// ones without activation that have not progressed for more than maxStaleness
// positions. It returns the rebuilt queue and the number pruned.
func (m *Manager) Prune(q *Queue, current, maxStaleness int) (*Queue, int) {
	out := q.Filter(func(st *State) bool {
		switch st.Status {
		case Abandoned, Aggregated, Confirmed:
			return false
		case Pending:
			return st.Activation > 0 || current-st.LastAdvanced <= maxStaleness
		}
		return true
	})
	return out, q.Len() - out.Len()
}

// PruneStale drops abandoned, aggregated and confirmed alternatives, and any
// other alternative that is not complete and has not progressed for more than
// maxStaleness positions.
func (m *Manager) PruneStale(q *Queue, current, maxStaleness int) (*Queue, int) {
	out := q.Filter(func(st *State) bool {
		switch st.Status {
		case Abandoned, Aggregated, Confirmed:
			return false
		case Complete:
			return true
		}
		return current-st.LastAdvanced <= maxStaleness
	})
	return out, q.Len() - out.Len()
}
