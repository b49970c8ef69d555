package pattern

import (
	"fmt"
	"strings"
)

// Validity is the result of Validate. It never carries a panic or error for
// malformed input; problems are listed in Errors.
type Validity struct {
	Valid  bool
	Errors []SyntaxError
}

// Messages returns the error messages prefixed with their offsets.
func (v Validity) Messages() []string {
	out := make([]string, len(v.Errors))
	for i := range v.Errors {
		out[i] = v.Errors[i].Error()
	}
	return out
}

type opening struct {
	lexeme Lexeme
	// elements counts operands seen in the current branch of the group.
	elements int
	piped    bool
}

// Validate checks bracket, brace and parenthesis balance and operator
// placement, collecting every problem instead of stopping at the first.
func Validate(pattern string) Validity {
	lexemes, err := Lex(pattern)
	if err != nil {
		return Validity{Errors: []SyntaxError{{Message: err.Error()}}}
	}

	var errs []SyntaxError
	report := func(offset int, format string, args ...any) {
		errs = append(errs, SyntaxError{Offset: offset, Message: fmt.Sprintf(format, args...)})
	}

	stack := []opening{{lexeme: Lexeme{Kind: KindEOF}}}
	top := func() *opening { return &stack[len(stack)-1] }
	seen := false

	for _, lx := range lexemes {
		switch lx.Kind {
		case KindSpace:
			continue

		case KindWord, KindQuoted:
			if lx.Kind == KindQuoted && strings.TrimSpace(lx.Literal[1:len(lx.Literal)-1]) == "" {
				report(lx.Offset, "empty quoted literal")
			}
			top().elements++
			seen = true

		case KindSlot:
			body := strings.TrimSpace(lx.Literal[1 : len(lx.Literal)-1])
			pos, _, _ := strings.Cut(body, ":")
			if body != "*" && (strings.TrimSpace(pos) == "" || strings.ContainsAny(pos, "{ ")) {
				report(lx.Offset, "invalid slot %s", lx.Literal)
			}
			top().elements++
			seen = true

		case KindLBrack, KindLParen:
			stack = append(stack, opening{lexeme: lx})

		case KindRBrack, KindRParen:
			want := KindLBrack
			if lx.Kind == KindRParen {
				want = KindLParen
			}
			if len(stack) == 1 {
				report(lx.Offset, "unmatched %q", lx.Literal)
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if open.lexeme.Kind != want {
				report(lx.Offset, "%q at offset %d closed by %q", open.lexeme.Literal, open.lexeme.Offset, lx.Literal)
			}
			if open.elements == 0 {
				report(open.lexeme.Offset, "empty group or alternative in %q", open.lexeme.Literal)
			}
			top().elements++
			seen = true

		case KindPipe:
			if top().elements == 0 {
				report(lx.Offset, "empty alternative before %q", "|")
			}
			top().elements = 0
			top().piped = true

		case KindPlus, KindStar:
			if top().elements == 0 {
				report(lx.Offset, "operator %q has no operand", lx.Literal)
			}

		case KindError:
			switch lx.Literal {
			case "{", "}":
				report(lx.Offset, "unmatched %q", lx.Literal)
			case "\"":
				report(lx.Offset, "unterminated quoted literal")
			default:
				report(lx.Offset, "unexpected character %q", lx.Literal)
			}
		}
	}

	for _, open := range stack[1:] {
		report(open.lexeme.Offset, "unclosed %q", open.lexeme.Literal)
	}
	if root := stack[0]; root.piped && root.elements == 0 {
		report(len(pattern), "empty alternative after %q", "|")
	}
	if !seen && len(errs) == 0 {
		report(0, "empty pattern")
	}

	return Validity{Valid: len(errs) == 0, Errors: errs}
}
