// Package engine implements the incremental parser: every token passes
// through instantiation, update, completion, link building and pruning, in
// that order, against a single parse.State.
package engine

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/constraint"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/mwe"
	"github.com/dhamidi/cxg/parse"
	"github.com/dhamidi/cxg/pattern"
	"github.com/dhamidi/cxg/registry"
	"github.com/dhamidi/cxg/semantic"
	"github.com/dhamidi/cxg/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.engine")

// ErrNoRegistry is returned by Parse when the engine has no registry.
var ErrNoRegistry = errors.New("engine has no construction registry")

// Engine holds what is shared between parses. It is not modified by Parse,
// so one Engine may parse several sentences concurrently.
type Engine struct {
	Registry  registry.Registry
	Config    Config
	Links     LinkBuilder
	Semantics *semantic.Calculator
}

func New(reg registry.Registry, cfg Config) *Engine {
	return &Engine{
		Registry:  reg,
		Config:    cfg,
		Links:     &FeatureLinker{MinScore: cfg.MinFeatureCompatibility},
		Semantics: semantic.NewCalculator(),
	}
}

// Parse runs every position of tokens and finalizes the state. A sentence
// that cannot be resolved still yields the structures confirmed on the way.
func (e *Engine) Parse(tokens []token.Token) (*parse.State, error) {
	if e.Registry == nil {
		return nil, ErrNoRegistry
	}
	s := e.NewSession(parse.NewState(tokens))
	for p := range tokens {
		s.Step(p)
	}
	s.Finalize()
	log.Infof("parsed %s", Summary(s.State))
	return s.State, nil
}

// Session is one parse in progress. The phase methods are exported so that
// other engines can interleave their own phases.
type Session struct {
	Engine       *Engine
	State        *parse.State
	Alternatives *alternative.Manager
	Lookahead    mwe.Lookahead
	Aggregator   *mwe.Aggregator
	// Retain decides whether an alternative that failed to advance stays
	// in the queue unchanged instead of being abandoned.
	Retain func(alt *alternative.State) bool
	// Aggregated, when set, is called after an expression became a node.
	Aggregated func(alt *alternative.State, n *parse.Node, p int)
}

func (e *Engine) NewSession(st *parse.State) *Session {
	alts := alternative.NewManager(e.Registry, e.Config.MaxBacktrackDepth)
	return &Session{
		Engine:       e,
		State:        st,
		Alternatives: alts,
		Aggregator:   &mwe.Aggregator{Alternatives: alts},
		Retain:       awaitingLookahead,
	}
}

func awaitingLookahead(alt *alternative.State) bool {
	return alt.Status == alternative.TentativeComplete
}

func (s *Session) warnf(format string, args ...any) {
	if s.Engine.Config.Verbose {
		log.Warningf(format, args...)
	} else {
		log.Debugf(format, args...)
	}
}

// Step runs the five phases for position p.
func (s *Session) Step(p int) {
	s.State.Position = p
	s.Instantiate(p)
	s.Update(p)
	s.Complete(p, false)
	s.Link(p)
	s.Prune(p)
}

// Instantiate starts an alternative for each candidate construction the
// token at p can begin. Nothing is instantiated once the queue holds
// MaxActiveAlternatives; past the soft threshold candidates are taken in
// priority order.
func (s *Session) Instantiate(p int) []*alternative.State {
	cfg := s.Engine.Config
	q := s.State.Queue
	if q.Len() >= cfg.MaxActiveAlternatives {
		s.warnf("position %d: %d active alternatives, instantiation skipped", p, q.Len())
		return nil
	}

	tok := s.State.Tokens[p]
	candidates := s.Engine.Registry.ConstructionsForToken(tok)
	if q.Len() >= cfg.softLimit() {
		candidates = slices.Clone(candidates)
		slices.SortStableFunc(candidates, func(a, b *construction.Definition) int {
			return cmp.Compare(b.Priority, a.Priority)
		})
		s.warnf("position %d: %d active alternatives, instantiating by priority", p, q.Len())
	}

	var created []*alternative.State
	for _, def := range candidates {
		if q.Len() >= cfg.MaxActiveAlternatives {
			s.warnf("position %d: alternative cap %d reached", p, cfg.MaxActiveAlternatives)
			break
		}
		if !constraint.CanTokenMatch(def, tok) {
			continue
		}
		alt := s.Alternatives.Create(def, tok, p)
		if alt == nil {
			continue
		}
		q.Push(alt)
		created = append(created, alt)
	}
	log.Debugf("position %d: instantiated %d of %d candidates", p, len(created), len(candidates))
	return created
}

// Update advances every alternative not created at p with the token at p.
// The queue is rebuilt rather than modified while it is iterated.
func (s *Session) Update(p int) {
	tok := s.State.Tokens[p]
	next := alternative.NewQueue()
	var advanced, abandoned int
	for _, alt := range s.State.Queue.Items() {
		if alt.CreatedAt == p {
			next.Push(alt)
			continue
		}
		if adv := s.Alternatives.TryAdvance(alt, tok); adv != nil {
			next.Push(adv)
			advanced++
			continue
		}
		if !s.Retain(alt) && s.Alternatives.Transition(alt, alternative.Abandoned) == nil {
			abandoned++
		}
		next.Push(alt)
	}
	s.State.Queue = next
	log.Debugf("position %d: advanced %d, abandoned %d", p, advanced, abandoned)
}

// Complete finalizes the complete and tentatively complete alternatives in
// rank order. At the end of the sentence (final) undecided lookahead confirms.
func (s *Session) Complete(p int, final bool) []*parse.Node {
	var done []*alternative.State
	for _, alt := range s.State.Queue.Items() {
		if alt.Status.Finished() {
			done = append(done, alt)
		}
	}
	SortCompleted(done)

	var confirmed []*parse.Node
	for _, alt := range done {
		if alt.Status == alternative.TentativeComplete && alt.IsMWE() {
			confirmed = append(confirmed, s.decide(alt, p, final)...)
			continue
		}
		if n := s.finish(alt, p); n != nil {
			confirmed = append(confirmed, n)
		}
	}
	return confirmed
}

// decide consults the lookahead of a tentatively complete expression.
func (s *Session) decide(alt *alternative.State, p int, final bool) []*parse.Node {
	def := alt.Construction
	res := s.Lookahead.Check(alt, def, s.State.Tokens, p)
	if res.Status == mwe.Undecided {
		switch {
		case final:
			res = mwe.LookaheadResult{Status: mwe.Confirmed, Reason: "end of sentence"}
		case s.Lookahead.ExceededWindow(alt, def, p):
			s.warnf("%s at %d: lookahead window of %d exhausted", def.Name, alt.Start, def.LookaheadDistance())
			if s.Engine.Config.LookaheadDefaultConfirm {
				res = mwe.LookaheadResult{Status: mwe.Confirmed, Reason: "lookahead window exhausted"}
			} else {
				res = mwe.LookaheadResult{Status: mwe.Invalidated, Reason: "lookahead window exhausted"}
			}
		default:
			alt.Lookahead.Counter++
			return nil
		}
	}
	log.Debugf("%s: %s (%s)", alt, res.Status, res.Reason)

	if res.Status == mwe.Invalidated {
		s.mustTransition(alt, alternative.Invalidated)
		heads := s.Aggregator.Preserve(s.State, alt, s.Engine.Config.Strategy())
		s.mustTransition(alt, alternative.Abandoned)
		var out []*parse.Node
		for _, h := range heads {
			if n := s.finish(h, p); n != nil {
				out = append(out, n)
			}
		}
		return out
	}
	if n := s.finish(alt, p); n != nil {
		return []*parse.Node{n}
	}
	return nil
}

// finish confirms alt as a node, or abandons it when its span is taken.
func (s *Session) finish(alt *alternative.State, p int) *parse.Node {
	def := alt.Construction
	if s.State.HasSpan(def.Name, alt.Start, alt.Current) || !s.State.SpanFree(def.Type, alt.Start, alt.Current) {
		log.Debugf("%s: span taken, abandoned", alt)
		s.mustTransition(alt, alternative.Abandoned)
		return nil
	}
	s.mustTransition(alt, alternative.Confirmed)

	var node *parse.Node
	if alt.IsMWE() {
		n, err := s.Aggregator.Aggregate(s.State, alt, def, p)
		if err != nil {
			log.Errorf("%s: %s", alt, err)
			return nil
		}
		s.mustTransition(alt, alternative.Aggregated)
		node = n
		if s.Aggregated != nil {
			s.Aggregated(alt, n, p)
		}
	} else {
		node = s.buildNode(alt, p)
		if err := s.State.Confirm(node); err != nil {
			log.Errorf("%s: %s", alt, err)
			return nil
		}
	}

	if def.Semantics != nil {
		res := s.Engine.Semantics.Apply(def.Name, s.matchOf(alt), def.Semantics)
		node.SemanticValue = res.Value
		if len(res.Features) > 0 {
			if node.Features == nil {
				node.Features = make(map[string]string)
			}
			maps.Copy(node.Features, res.Features)
		}
	}
	log.Debugf("confirmed %s", node)
	return node
}

func (s *Session) buildNode(alt *alternative.State, p int) *parse.Node {
	def := alt.Construction
	words := token.Words(alt.Matched)
	features := make(map[string]string)
	labels := make([]string, len(alt.Matched))
	for i, tok := range alt.Matched {
		maps.Copy(features, tok.Features)
		labels[i] = def.LabelFor(tok)
	}
	maps.Copy(features, def.Features)
	if !slices.ContainsFunc(labels, func(l string) bool { return l != "" }) {
		labels = nil
	}
	return &parse.Node{
		ID:           s.State.NextNodeID(),
		Construction: def.Name,
		Type:         def.Type,
		Priority:     def.Priority,
		Start:        alt.Start,
		End:          alt.Current,
		Words:        words,
		Text:         strings.Join(words, " "),
		CE:           def.CE,
		Labels:       labels,
		Features:     features,
		Semantics:    def.Semantics,
		Alternative:  alt.ID,
		ConfirmedAt:  p,
	}
}

// matchOf rebuilds the pattern match of alt, with slots, for semantic actions.
func (s *Session) matchOf(alt *alternative.State) *pattern.MatchResult {
	if g, err := s.Alternatives.Graph(alt.Construction); err == nil {
		if m := s.Alternatives.Matcher().Match(g, alt.Matched, 0); m != nil {
			m.Start, m.End = alt.Start, alt.End()
			return m
		}
	}
	return &pattern.MatchResult{
		Slots:         map[string]string{},
		MatchedTokens: token.Words(alt.Matched),
		Tokens:        alt.Matched,
		Start:         alt.Start,
		End:           alt.End(),
	}
}

func (s *Session) mustTransition(alt *alternative.State, to alternative.Status) {
	if err := s.Alternatives.Transition(alt, to); err != nil {
		log.Errorf("%s", err)
	}
}

// Link asks the link builder for edges among the nodes confirmed at p.
func (s *Session) Link(p int) int {
	if s.Engine.Links == nil {
		return 0
	}
	n := s.State.AddEdges(s.Engine.Links.Build(s.State, p)...)
	if n > 0 {
		log.Debugf("position %d: %d edges", p, n)
	}
	return n
}

// Prune drops finished and stale alternatives.
func (s *Session) Prune(p int) int {
	q, n := s.Alternatives.Prune(s.State.Queue, p, s.Engine.Config.MaxStaleness)
	s.State.Queue = q
	return n
}

// Finalize runs a last completion pass, records the alternatives still in
// progress as partials and marks the state complete.
func (s *Session) Finalize() {
	last := len(s.State.Tokens) - 1
	if last >= 0 {
		s.Complete(last, true)
		s.Link(last)
	}
	for _, alt := range s.State.Queue.Items() {
		if alt.Status != alternative.Progressing || alt.Activation <= 0 {
			continue
		}
		s.State.Partials = append(s.State.Partials, parse.Partial{
			Alternative:  alt.ID,
			Construction: alt.Name,
			Start:        alt.Start,
			End:          alt.Current,
			Words:        token.Words(alt.Matched),
			Expected:     alt.ExpectedNext,
			Confidence:   min(1, alt.Activation/alt.Threshold),
		})
	}
	s.State.Complete = true
}

// Summary is a one-line description of a finished parse.
func Summary(st *parse.State) string {
	return fmt.Sprintf("%d tokens, %d nodes, %d edges, %d partials", len(st.Tokens), len(st.Nodes), len(st.Edges), len(st.Partials))
}
