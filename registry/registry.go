// Package registry resolves the constructions of a grammar and indexes them by
// the tokens that can take part in them.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/pattern"
	"github.com/dhamidi/cxg/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.registry")

// ErrGrammarNotFound is returned when a grammar id is unknown to a loader.
var ErrGrammarNotFound = errors.New("grammar not found")

// Registry is the read-only view of one loaded grammar used during a parse.
type Registry interface {
	// ConstructionsForToken returns the candidate constructions for tok in
	// load order.
	ConstructionsForToken(tok token.Token) []*construction.Definition
	// Construction looks a definition up by name.
	Construction(name string) (*construction.Definition, bool)
	// Constructions returns every definition in load order.
	Constructions() []*construction.Definition
	// Graph returns the compiled pattern of a definition.
	Graph(def *construction.Definition) (*pattern.Graph, error)
}

// Loader loads the constructions of a grammar by id.
type Loader interface {
	LoadConstructions(grammarID string) (Registry, error)
}

// Memory is an in-memory registry. It is immutable after construction and
// safe for concurrent readers.
type Memory struct {
	grammarID string
	defs      []*construction.Definition
	byName    map[string]int
	byPOS     map[string][]int
	// literalID maps a delimited literal to its automaton pattern id;
	// byLiteral is indexed by that id.
	literalID map[string]int
	byLiteral [][]int
	any       []int
	literals  *ahocorasick.Automaton
	graphs    *pattern.Cache
}

// NewMemory indexes defs. Every pattern must compile.
func NewMemory(grammarID string, defs []*construction.Definition) (*Memory, error) {
	m := &Memory{
		grammarID: grammarID,
		defs:      defs,
		byName:    make(map[string]int, len(defs)),
		byPOS:     make(map[string][]int),
		literalID: make(map[string]int),
		graphs:    pattern.NewCache(),
	}

	builder := ahocorasick.NewBuilder()
	for i, def := range defs {
		if _, dup := m.byName[def.Name]; dup {
			return nil, fmt.Errorf("grammar %s: duplicate construction %q", grammarID, def.Name)
		}
		m.byName[def.Name] = i

		g, err := m.graphs.Get(def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("grammar %s: construction %s: %w", grammarID, def.Name, err)
		}
		for _, pos := range g.SlotPOS() {
			m.byPOS[pos] = append(m.byPOS[pos], i)
		}
		for _, lit := range g.Literals() {
			key := literalKey(lit)
			id, seen := m.literalID[key]
			if !seen {
				id = len(m.byLiteral)
				m.literalID[key] = id
				m.byLiteral = append(m.byLiteral, nil)
				builder.AddPattern([]byte(key))
			}
			if ids := m.byLiteral[id]; len(ids) == 0 || ids[len(ids)-1] != i {
				m.byLiteral[id] = append(ids, i)
			}
		}
		if g.HasWildcard() || startsWithReference(def.Pattern) {
			m.any = append(m.any, i)
		}
	}

	if len(m.byLiteral) > 0 {
		automaton, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("grammar %s: literal index: %w", grammarID, err)
		}
		m.literals = automaton
	}

	log.Infof("grammar %s: %d constructions, %d literals, %d tags", grammarID, len(defs), len(m.byLiteral), len(m.byPOS))
	return m, nil
}

// literalKey delimits a literal so that only whole-word lookups can match.
func literalKey(word string) string {
	return "\x00" + strings.ToLower(word) + "\x00"
}

// literalHaystack joins words between delimiters. Neighbouring words share a
// delimiter, so a literal key matches exactly one whole word.
func literalHaystack(words ...string) []byte {
	var b strings.Builder
	b.WriteByte(0)
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToLower(w))
		b.WriteByte(0)
	}
	return []byte(b.String())
}

// startsWithReference reports whether the first element of a pattern is an
// upper-case bare word, a reference to another construction's output.
func startsWithReference(p string) bool {
	lexemes, err := pattern.Lex(p)
	if err != nil {
		return false
	}
	for _, lx := range lexemes {
		switch lx.Kind {
		case pattern.KindSpace, pattern.KindLParen, pattern.KindLBrack:
			continue
		case pattern.KindWord:
			hasLetter := false
			for _, r := range lx.Literal {
				if unicode.IsLower(r) {
					return false
				}
				if unicode.IsLetter(r) {
					hasLetter = true
				}
			}
			return hasLetter
		}
		return false
	}
	return false
}

// GrammarID returns the id the registry was loaded for.
func (m *Memory) GrammarID() string {
	return m.grammarID
}

func (m *Memory) Constructions() []*construction.Definition {
	return m.defs
}

func (m *Memory) Construction(name string) (*construction.Definition, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.defs[i], true
}

func (m *Memory) Graph(def *construction.Definition) (*pattern.Graph, error) {
	return m.graphs.Get(def.Pattern)
}

// ConstructionsForToken returns the union of the constructions indexed under
// the token's tag, word or lemma, and those that can start anywhere.
func (m *Memory) ConstructionsForToken(tok token.Token) []*construction.Definition {
	hit := make(map[int]bool)
	for _, i := range m.byPOS[tok.POS] {
		hit[i] = true
	}
	for _, i := range m.any {
		hit[i] = true
	}
	for _, i := range m.lookupLiterals(tok.Word, tok.Lemma) {
		hit[i] = true
	}

	out := make([]*construction.Definition, 0, len(hit))
	for i, def := range m.defs {
		if hit[i] {
			out = append(out, def)
		}
	}
	return out
}

// lookupLiterals scans all words in one pass and returns the indexes of the
// constructions whose patterns contain any of them as a literal.
func (m *Memory) lookupLiterals(words ...string) []int {
	if m.literals == nil {
		return nil
	}
	haystack := literalHaystack(words...)
	if len(haystack) < 2 {
		return nil
	}
	var out []int
	for _, match := range m.literals.FindAllOverlapping(haystack) {
		out = append(out, m.byLiteral[match.PatternID]...)
	}
	return out
}

// Static is a Loader over grammars already in memory, keyed by id.
type Static map[string]*construction.Grammar

func (s Static) LoadConstructions(grammarID string) (Registry, error) {
	g, ok := s[grammarID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGrammarNotFound, grammarID)
	}
	return NewMemory(g.ID, g.Constructions)
}
