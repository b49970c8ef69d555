package pattern

import (
	"fmt"
	"strings"

	"github.com/dhamidi/cxg/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.pattern")

// DefaultMaxDepth bounds the recursion of a single match attempt.
const DefaultMaxDepth = 100

// Predicate is a named slot constraint, referenced as {POS:name}.
type Predicate func(tok token.Token) bool

// Matcher runs compiled graphs against token sequences by depth-first
// backtracking. A Matcher holds no per-call state and may be shared.
type Matcher struct {
	// MaxDepth is the recursion ceiling; zero means DefaultMaxDepth.
	MaxDepth int
	// Predicates resolves named slot constraints. Unknown names never match.
	Predicates map[string]Predicate
}

// NewMatcher creates a matcher with the given recursion ceiling.
func NewMatcher(maxDepth int) *Matcher {
	return &Matcher{MaxDepth: maxDepth}
}

// MatchResult describes one successful traversal from START to END.
type MatchResult struct {
	// Slots maps a slot tag to the captured word. A tag captured more than
	// once gets suffixed keys: NOUN, NOUN_2, ...
	Slots         map[string]string
	MatchedTokens []string
	Tokens        []token.Token
	Start         int
	// End is exclusive.
	End int
}

// Len returns the number of tokens matched.
func (r *MatchResult) Len() int {
	return r.End - r.Start
}

type capture struct {
	pos  string
	word string
}

type run struct {
	m        *Matcher
	g        *Graph
	tokens   []token.Token
	maxDepth int
	// failed holds (node, index) pairs known not to reach END. onPath holds
	// the pairs of the current traversal; meeting one again means a cycle
	// that consumed nothing.
	failed   map[[2]int]bool
	onPath   map[[2]int]bool
	captures []capture
	matched  []token.Token
	end      int
	hitLimit bool
}

func (m *Matcher) newRun(g *Graph, tokens []token.Token) *run {
	depth := m.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &run{m: m, g: g, tokens: tokens, maxDepth: depth, failed: make(map[[2]int]bool), onPath: make(map[[2]int]bool)}
}

// Match tries to match g against tokens starting at index start. It returns
// nil when no path reaches END. Only the first successful path is reported;
// main-path edges are tried before bypass edges.
func (m *Matcher) Match(g *Graph, tokens []token.Token, start int) *MatchResult {
	if g == nil || g.Start < 0 || start < 0 || start > len(tokens) {
		return nil
	}
	r := m.newRun(g, tokens)
	if !r.walk(g.Start, start, 0) {
		if r.hitLimit {
			log.Debugf("pattern %q: recursion ceiling %d reached at %d", g.Pattern, r.maxDepth, start)
		}
		return nil
	}

	res := &MatchResult{
		Slots:         make(map[string]string),
		MatchedTokens: token.Words(r.matched),
		Tokens:        r.matched,
		Start:         start,
		End:           r.end,
	}
	counts := make(map[string]int)
	for _, c := range r.captures {
		counts[c.pos]++
		key := c.pos
		if n := counts[c.pos]; n > 1 {
			key = fmt.Sprintf("%s_%d", c.pos, n)
		}
		res.Slots[key] = c.word
	}
	return res
}

func (r *run) walk(id, i, depth int) bool {
	if depth > r.maxDepth {
		r.hitLimit = true
		return false
	}
	key := [2]int{id, i}
	if r.failed[key] || r.onPath[key] {
		return false
	}

	node := r.g.Node(id)
	if node == nil {
		return false
	}
	if node.Kind == NodeEnd {
		r.end = i
		return true
	}

	next := i
	if node.Kind.Consuming() {
		if i >= len(r.tokens) || !r.m.accepts(node, r.tokens[i]) {
			r.failed[key] = true
			return false
		}
		next = i + 1
	}

	r.onPath[key] = true
	defer delete(r.onPath, key)

	savedCaptures := len(r.captures)
	savedMatched := len(r.matched)
	if node.Kind.Consuming() {
		if node.Kind == NodeSlot {
			r.captures = append(r.captures, capture{pos: node.POS, word: r.tokens[i].Word})
		}
		r.matched = append(r.matched, r.tokens[i])
	}

	for _, e := range r.g.Outgoing(id) {
		if r.walk(e.To, next, depth+1) {
			return true
		}
		r.captures = r.captures[:savedCaptures]
		r.matched = r.matched[:savedMatched]
	}

	r.captures = r.captures[:savedCaptures]
	r.matched = r.matched[:savedMatched]
	r.failed[key] = true
	return false
}

// MatchAll scans every start position. After a successful match the scan
// resumes past the matched span, so reported matches never overlap.
// Zero-length matches are not reported.
func (m *Matcher) MatchAll(g *Graph, tokens []token.Token) []*MatchResult {
	var out []*MatchResult
	for i := 0; i < len(tokens); {
		res := m.Match(g, tokens, i)
		if res == nil || res.Len() == 0 {
			i++
			continue
		}
		out = append(out, res)
		i = res.End
	}
	return out
}

// Accepts reports whether tokens can be consumed, in order, along some path
// of g (prefix) and whether END is then reachable without consuming more
// (complete).
func (m *Matcher) Accepts(g *Graph, tokens []token.Token) (prefix, complete bool) {
	if g == nil || g.Start < 0 {
		return false, false
	}
	r := m.newRun(g, tokens)
	visited := make(map[[2]int]bool)

	var walk func(id, i, depth int) bool
	walk = func(id, i, depth int) bool {
		if depth > r.maxDepth {
			return false
		}
		key := [2]int{id, i}
		if visited[key] {
			return false
		}
		visited[key] = true

		node := g.Node(id)
		if node == nil {
			return false
		}
		if node.Kind.Consuming() {
			if i >= len(tokens) {
				prefix = true
				return false
			}
			if !m.accepts(node, tokens[i]) {
				return false
			}
			i++
		}
		if i == len(tokens) {
			prefix = true
			if node.Kind == NodeEnd {
				return true
			}
		}
		for _, e := range g.Outgoing(id) {
			if walk(e.To, i, depth+1) {
				return true
			}
		}
		return false
	}

	complete = walk(g.Start, 0, 0)
	if complete {
		prefix = true
	}
	return prefix, complete
}

// Expect returns the consuming nodes that could take the next token after
// tokens have been consumed, in graph order.
func (m *Matcher) Expect(g *Graph, tokens []token.Token) []*Node {
	if g == nil || g.Start < 0 {
		return nil
	}
	depth := m.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	visited := make(map[[2]int]bool)
	found := make(map[int]bool)

	var walk func(id, i, d int)
	walk = func(id, i, d int) {
		key := [2]int{id, i}
		if d > depth || visited[key] {
			return
		}
		visited[key] = true
		node := g.Node(id)
		if node == nil {
			return
		}
		if node.Kind.Consuming() {
			if i == len(tokens) {
				found[id] = true
				return
			}
			if !m.accepts(node, tokens[i]) {
				return
			}
			i++
		}
		for _, e := range g.Outgoing(id) {
			walk(e.To, i, d+1)
		}
	}
	walk(g.Start, 0, 0)

	var out []*Node
	for _, n := range g.Nodes {
		if found[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// accepts tests a consuming node against a single token.
func (m *Matcher) accepts(node *Node, tok token.Token) bool {
	switch node.Kind {
	case NodeLiteral:
		return strings.EqualFold(tok.Word, node.Value)
	case NodeWildcard:
		return true
	case NodeSlot:
		if tok.POS != node.POS {
			return false
		}
		return m.satisfies(node.Constraint, tok)
	}
	return false
}

// satisfies evaluates a slot constraint. Key=Value lists compare features and
// treat an absent feature as not applicable; other text names a predicate.
func (m *Matcher) satisfies(constraint string, tok token.Token) bool {
	if constraint == "" {
		return true
	}
	if strings.Contains(constraint, "=") {
		for _, pair := range strings.Split(constraint, ",") {
			key, want, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return false
			}
			if got, present := tok.Feature(strings.TrimSpace(key)); present && got != strings.TrimSpace(want) {
				return false
			}
		}
		return true
	}
	pred, ok := m.Predicates[constraint]
	if !ok {
		log.Debugf("unknown slot predicate %q", constraint)
		return false
	}
	return pred(tok)
}
