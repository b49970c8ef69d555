package pattern

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

//go:embed syntax.ebnf
var syntaxSource []byte

const (
	startProduction   = "Pattern"
	elementProduction = "Element"
)

// Token kinds produced by the lexer.
const (
	KindSpace  = "Space"
	KindWord   = "Word"
	KindQuoted = "Quoted"
	KindSlot   = "Slot"
	KindLBrack = "LBrack"
	KindRBrack = "RBrack"
	KindLParen = "LParen"
	KindRParen = "RParen"
	KindPipe   = "Pipe"
	KindPlus   = "Plus"
	KindStar   = "Star"
	KindError  = "ERROR"
	KindEOF    = "EOF"
)

var (
	syntaxOnce    sync.Once
	syntaxGrammar ebnf.Grammar
	syntaxKinds   []string
	syntaxErr     error
)

// Syntax returns the verified EBNF grammar of the pattern token language.
func Syntax() (ebnf.Grammar, error) {
	syntaxOnce.Do(func() {
		g, err := ebnf.Parse("syntax.ebnf", bytes.NewReader(syntaxSource))
		if err != nil {
			syntaxErr = fmt.Errorf("parse pattern syntax: %w", err)
			return
		}
		if err := ebnf.Verify(g, startProduction); err != nil {
			syntaxErr = fmt.Errorf("verify pattern syntax: %w", err)
			return
		}
		syntaxGrammar = g
		syntaxKinds = tokenKinds(g)
	})
	return syntaxGrammar, syntaxErr
}

// SyntaxSource returns the EBNF text of the pattern token language.
func SyntaxSource() string {
	return string(syntaxSource)
}

// tokenKinds lists the productions named by the Element alternative, sorted
// so that equally long matches resolve the same way on every run.
func tokenKinds(g ebnf.Grammar) []string {
	prod := g[elementProduction]
	if prod == nil {
		return nil
	}
	var kinds []string
	var collect func(expr ebnf.Expression)
	collect = func(expr ebnf.Expression) {
		switch e := expr.(type) {
		case ebnf.Alternative:
			for _, alt := range e {
				collect(alt)
			}
		case *ebnf.Group:
			collect(e.Body)
		case *ebnf.Name:
			kinds = append(kinds, e.String)
		}
	}
	collect(prod.Expr)
	sort.Strings(kinds)
	return kinds
}

// Lexeme is a lexical token of a pattern string.
type Lexeme struct {
	Kind    string
	Literal string
	Offset  int
}

func (l Lexeme) String() string {
	return fmt.Sprintf("%d %s %q", l.Offset, l.Kind, l.Literal)
}

type memoKey struct {
	name   string
	offset int
}

// span is the outcome of matching an expression at an offset. A repetition
// or option may succeed with n == 0.
type span struct {
	n  int
	ok bool
}

var fail = span{}

// Lexer tokenizes pattern strings using the productions of syntax.ebnf.
type Lexer struct {
	grammar ebnf.Grammar
	kinds   []string
	input   []byte
	pos     int

	// seen caches production matches for the lexeme being scanned. A key
	// mapped to fail while its production is still being expanded stops
	// left recursion.
	seen map[memoKey]span
}

// NewLexer creates a lexer over input.
func NewLexer(input string) (*Lexer, error) {
	g, err := Syntax()
	if err != nil {
		return nil, err
	}
	return &Lexer{
		grammar: g,
		kinds:   syntaxKinds,
		input:   []byte(input),
	}, nil
}

// Next returns the next lexeme, the longest match among the token kinds.
// Characters no kind accepts are returned one at a time as ERROR lexemes.
func (l *Lexer) Next() Lexeme {
	if l.pos >= len(l.input) {
		return Lexeme{Kind: KindEOF, Offset: l.pos}
	}

	start := l.pos
	l.seen = make(map[memoKey]span)

	var kind string
	longest := 0
	for _, name := range l.kinds {
		if m := l.production(name, start); m.ok && m.n > longest {
			kind, longest = name, m.n
		}
	}

	if longest == 0 {
		_, size := utf8.DecodeRune(l.input[start:])
		l.pos += size
		return Lexeme{Kind: KindError, Literal: string(l.input[start:l.pos]), Offset: start}
	}

	l.pos += longest
	return Lexeme{Kind: kind, Literal: string(l.input[start:l.pos]), Offset: start}
}

// accept matches expr at offset. Repetitions are greedy and sequences do not
// backtrack into them; the token productions of syntax.ebnf never need it.
func (l *Lexer) accept(expr ebnf.Expression, offset int) span {
	switch e := expr.(type) {
	case *ebnf.Token:
		if e.String != "" && bytes.HasPrefix(l.input[offset:], []byte(e.String)) {
			return span{n: len(e.String), ok: true}
		}
		return fail

	case *ebnf.Range:
		return l.runeIn(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		at := offset
		for _, item := range e {
			m := l.accept(item, at)
			if !m.ok {
				return fail
			}
			at += m.n
		}
		return span{n: at - offset, ok: true}

	case ebnf.Alternative:
		best := fail
		for _, alt := range e {
			if m := l.accept(alt, offset); m.ok && (!best.ok || m.n > best.n) {
				best = m
			}
		}
		return best

	case *ebnf.Repetition:
		at := offset
		for {
			m := l.accept(e.Body, at)
			if !m.ok || m.n == 0 {
				break
			}
			at += m.n
		}
		return span{n: at - offset, ok: true}

	case *ebnf.Option:
		if m := l.accept(e.Body, offset); m.ok {
			return m
		}
		return span{ok: true}

	case *ebnf.Group:
		return l.accept(e.Body, offset)

	case *ebnf.Name:
		return l.production(e.String, offset)
	}
	return fail
}

func (l *Lexer) production(name string, offset int) span {
	key := memoKey{name: name, offset: offset}
	if m, ok := l.seen[key]; ok {
		return m
	}
	prod := l.grammar[name]
	if prod == nil || prod.Expr == nil {
		l.seen[key] = fail
		return fail
	}
	l.seen[key] = fail
	m := l.accept(prod.Expr, offset)
	l.seen[key] = m
	return m
}

// runeIn matches one rune between begin and end inclusive.
func (l *Lexer) runeIn(begin, end string, offset int) span {
	if offset >= len(l.input) {
		return fail
	}
	lo, _ := utf8.DecodeRuneInString(begin)
	hi, _ := utf8.DecodeRuneInString(end)
	r, size := utf8.DecodeRune(l.input[offset:])
	if r == utf8.RuneError && size <= 1 {
		return fail
	}
	if r < lo || r > hi {
		return fail
	}
	return span{n: size, ok: true}
}

// Lex returns all lexemes of input, including Space and ERROR lexemes but not EOF.
func Lex(input string) ([]Lexeme, error) {
	lx, err := NewLexer(input)
	if err != nil {
		return nil, err
	}
	var out []Lexeme
	for {
		tok := lx.Next()
		if tok.Kind == KindEOF {
			return out, nil
		}
		out = append(out, tok)
	}
}
