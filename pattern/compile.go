package pattern

import (
	"fmt"
	"strings"
)

// fragment is a compiled sub-pattern with one entry and one exit node.
type fragment struct {
	start, end int
}

// Compiler turns pattern strings into graphs. Node ids are local to each
// Compile call. A Compiler is not safe for concurrent use.
type Compiler struct {
	graph   *Graph
	lexemes []Lexeme
	pos     int
	length  int
}

// NewCompiler creates a compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile compiles a pattern with a fresh compiler.
func Compile(pattern string) (*Graph, error) {
	return NewCompiler().Compile(pattern)
}

// Compile converts pattern into a graph from START to END. Malformed bracket
// nesting and unlexable characters are reported as a *CompileError wrapping
// a *SyntaxError with the offending offset.
func (c *Compiler) Compile(pattern string) (*Graph, error) {
	lexemes, err := Lex(pattern)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	c.graph = NewGraph()
	c.graph.Pattern = pattern
	c.lexemes = c.lexemes[:0]
	for _, lx := range lexemes {
		if lx.Kind != KindSpace {
			c.lexemes = append(c.lexemes, lx)
		}
	}
	c.pos = 0
	c.length = len(pattern)

	if len(c.lexemes) == 0 {
		return nil, &CompileError{Pattern: pattern, Err: ErrEmptyPattern}
	}

	start := c.graph.AddNode(NodeStart)
	frag, err := c.alternation()
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	if tok := c.peek(); tok.Kind != KindEOF {
		return nil, &CompileError{Pattern: pattern, Err: c.unexpected(tok)}
	}
	end := c.graph.AddNode(NodeEnd)
	c.graph.AddEdge(start.ID, frag.start, false)
	c.graph.AddEdge(frag.end, end.ID, false)

	g := c.graph
	c.graph = nil
	return g, nil
}

func (c *Compiler) peek() Lexeme {
	if c.pos >= len(c.lexemes) {
		return Lexeme{Kind: KindEOF, Offset: c.length}
	}
	return c.lexemes[c.pos]
}

func (c *Compiler) next() Lexeme {
	tok := c.peek()
	if c.pos < len(c.lexemes) {
		c.pos++
	}
	return tok
}

func (c *Compiler) intermediate() int {
	return c.graph.AddNode(NodeIntermediate).ID
}

// alternation := sequence { "|" sequence }
func (c *Compiler) alternation() (fragment, error) {
	first, err := c.sequence()
	if err != nil {
		return fragment{}, err
	}
	if c.peek().Kind != KindPipe {
		return first, nil
	}

	branches := []fragment{first}
	for c.peek().Kind == KindPipe {
		c.next()
		branch, err := c.sequence()
		if err != nil {
			return fragment{}, err
		}
		branches = append(branches, branch)
	}

	entry := c.intermediate()
	join := c.intermediate()
	for _, b := range branches {
		c.graph.AddEdge(entry, b.start, false)
		c.graph.AddEdge(b.end, join, false)
	}
	return fragment{start: entry, end: join}, nil
}

// sequence := { item }
func (c *Compiler) sequence() (fragment, error) {
	var frags []fragment
	for {
		switch c.peek().Kind {
		case KindPipe, KindRBrack, KindRParen, KindEOF:
			if len(frags) == 0 {
				id := c.intermediate()
				return fragment{start: id, end: id}, nil
			}
			for i := 1; i < len(frags); i++ {
				c.graph.AddEdge(frags[i-1].end, frags[i].start, false)
			}
			return fragment{start: frags[0].start, end: frags[len(frags)-1].end}, nil
		}
		frag, err := c.item()
		if err != nil {
			return fragment{}, err
		}
		frags = append(frags, frag)
	}
}

// item := atom { "+" | "*" }
func (c *Compiler) item() (fragment, error) {
	frag, err := c.atom()
	if err != nil {
		return fragment{}, err
	}
	for {
		switch c.peek().Kind {
		case KindPlus:
			c.next()
			frag = c.repeat(frag, false)
		case KindStar:
			c.next()
			frag = c.repeat(frag, true)
		default:
			return frag, nil
		}
	}
}

// repeat builds the loop-back structure for "+", and for "*" additionally a
// bypass that allows zero occurrences.
func (c *Compiler) repeat(body fragment, zero bool) fragment {
	check := c.graph.AddNode(NodeRepCheck).ID
	exit := c.intermediate()
	c.graph.AddEdge(body.end, check, false)
	c.graph.AddEdge(check, body.start, false)
	c.graph.AddEdge(check, exit, false)
	if !zero {
		return fragment{start: body.start, end: exit}
	}
	entry := c.intermediate()
	c.graph.AddEdge(entry, body.start, false)
	c.graph.AddEdge(entry, exit, true)
	return fragment{start: entry, end: exit}
}

func (c *Compiler) atom() (fragment, error) {
	tok := c.next()
	switch tok.Kind {
	case KindWord:
		return c.literal(tok.Literal), nil

	case KindQuoted:
		value := strings.TrimSpace(tok.Literal[1 : len(tok.Literal)-1])
		if value == "" {
			return fragment{}, &SyntaxError{Offset: tok.Offset, Message: "empty quoted literal"}
		}
		return c.literal(value), nil

	case KindSlot:
		return c.slot(tok)

	case KindLBrack:
		body, err := c.group(tok, KindRBrack, "[")
		if err != nil {
			return fragment{}, err
		}
		entry := c.intermediate()
		exit := c.intermediate()
		c.graph.AddEdge(entry, body.start, false)
		c.graph.AddEdge(body.end, exit, false)
		c.graph.AddEdge(entry, exit, true)
		return fragment{start: entry, end: exit}, nil

	case KindLParen:
		return c.group(tok, KindRParen, "(")

	default:
		return fragment{}, c.unexpected(tok)
	}
}

func (c *Compiler) group(open Lexeme, closeKind, opener string) (fragment, error) {
	if c.peek().Kind == closeKind {
		return fragment{}, &SyntaxError{Offset: open.Offset, Message: fmt.Sprintf("empty group %q", opener)}
	}
	body, err := c.alternation()
	if err != nil {
		return fragment{}, err
	}
	closing := c.next()
	if closing.Kind != closeKind {
		return fragment{}, &SyntaxError{
			Offset:  open.Offset,
			Message: fmt.Sprintf("%q opened here is not closed (found %s)", opener, describe(closing)),
			Err:     ErrUnbalanced,
		}
	}
	return body, nil
}

func (c *Compiler) literal(word string) fragment {
	n := c.graph.AddNode(NodeLiteral)
	n.Value = strings.ToLower(word)
	return fragment{start: n.ID, end: n.ID}
}

func (c *Compiler) slot(tok Lexeme) (fragment, error) {
	body := strings.TrimSpace(tok.Literal[1 : len(tok.Literal)-1])
	if body == "*" {
		n := c.graph.AddNode(NodeWildcard)
		return fragment{start: n.ID, end: n.ID}, nil
	}
	pos, constraint, _ := strings.Cut(body, ":")
	pos = strings.TrimSpace(pos)
	if pos == "" || strings.ContainsAny(pos, "{ ") {
		return fragment{}, &SyntaxError{Offset: tok.Offset, Message: fmt.Sprintf("invalid slot %s", tok.Literal)}
	}
	n := c.graph.AddNode(NodeSlot)
	n.POS = strings.ToUpper(pos)
	n.Constraint = strings.TrimSpace(constraint)
	return fragment{start: n.ID, end: n.ID}, nil
}

func (c *Compiler) unexpected(tok Lexeme) error {
	switch tok.Kind {
	case KindRBrack, KindRParen:
		return &SyntaxError{Offset: tok.Offset, Message: fmt.Sprintf("unmatched %q", tok.Literal), Err: ErrUnbalanced}
	case KindError:
		switch tok.Literal {
		case "{", "}":
			return &SyntaxError{Offset: tok.Offset, Message: fmt.Sprintf("unmatched %q", tok.Literal), Err: ErrUnbalanced}
		case "\"":
			return &SyntaxError{Offset: tok.Offset, Message: "unterminated quoted literal"}
		}
		return &SyntaxError{Offset: tok.Offset, Message: fmt.Sprintf("unexpected character %q", tok.Literal)}
	case KindPlus, KindStar:
		return &SyntaxError{Offset: tok.Offset, Message: fmt.Sprintf("operator %q has no operand", tok.Literal)}
	case KindEOF:
		return &SyntaxError{Offset: tok.Offset, Message: "unexpected end of pattern"}
	default:
		return &SyntaxError{Offset: tok.Offset, Message: fmt.Sprintf("unexpected %s", describe(tok))}
	}
}

func describe(tok Lexeme) string {
	if tok.Kind == KindEOF {
		return "end of pattern"
	}
	return fmt.Sprintf("%q", tok.Literal)
}
