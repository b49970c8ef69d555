// Package constraint evaluates the declarative constraints of a construction
// against candidate tokens.
//
// A feature, tag or lemma absent from a token is not applicable: constraints
// only fail on an explicit mismatch of data the token carries.
package constraint

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/token"
)

// Violation is one failed constraint.
type Violation struct {
	Constraint construction.Constraint
	Message    string
}

func (v Violation) String() string {
	return v.Message
}

// Result is the outcome of checking one token.
type Result struct {
	Valid      bool
	Violations []Violation
	// Deferred lists agrees_with constraints whose referenced element has not
	// been matched yet.
	Deferred []construction.Constraint
}

// Checker evaluates constraints in declaration order.
type Checker struct{}

// Check evaluates def's constraints for tok as the next element after the
// already matched tokens of an alternative.
func (Checker) Check(def *construction.Definition, matched []token.Token, tok token.Token) Result {
	res := Result{Valid: true}
	for _, c := range def.Constraints {
		if !applies(c, len(matched), tok) {
			continue
		}
		if c.Type == construction.AgreesWith {
			ref, ok := findElement(matched, c.Element)
			if !ok {
				res.Deferred = append(res.Deferred, c)
				continue
			}
			for _, f := range c.Features {
				want, okRef := ref.Feature(f)
				got, okTok := tok.Feature(f)
				if okRef && okTok && want != got {
					res.Violations = append(res.Violations, Violation{
						Constraint: c,
						Message:    fmt.Sprintf("%s: %s=%s disagrees with %s %s=%s", tok.Word, f, got, ref.Word, f, want),
					})
				}
			}
			continue
		}
		if msg := evaluate(c, tok); msg != "" {
			res.Violations = append(res.Violations, Violation{Constraint: c, Message: tok.Word + ": " + msg})
		}
	}
	res.Valid = len(res.Violations) == 0
	return res
}

// Check is shorthand for Checker{}.Check.
func Check(def *construction.Definition, matched []token.Token, tok token.Token) Result {
	return Checker{}.Check(def, matched, tok)
}

func applies(c construction.Constraint, index int, tok token.Token) bool {
	if c.Target != "" && !strings.EqualFold(c.Target, tok.POS) {
		return false
	}
	if c.Index != nil && *c.Index != index {
		return false
	}
	return true
}

// findElement returns the most recent matched token whose tag or word is name.
func findElement(matched []token.Token, name string) (token.Token, bool) {
	for i := len(matched) - 1; i >= 0; i-- {
		if matched[i].POS == name || strings.EqualFold(matched[i].Word, name) {
			return matched[i], true
		}
	}
	return token.Token{}, false
}

// evaluate returns a violation message, or "" when c holds or is not applicable.
func evaluate(c construction.Constraint, tok token.Token) string {
	switch c.Type {
	case construction.FeatureEquals:
		if got, ok := tok.Feature(c.Feature); ok && got != c.Value {
			return fmt.Sprintf("%s=%s, want %s", c.Feature, got, c.Value)
		}
	case construction.FeatureIn:
		if got, ok := tok.Feature(c.Feature); ok && !slices.Contains(c.Values, got) {
			return fmt.Sprintf("%s=%s not in %v", c.Feature, got, c.Values)
		}
	case construction.FeatureNot:
		if got, ok := tok.Feature(c.Feature); ok && got == c.Value {
			return fmt.Sprintf("%s must not be %s", c.Feature, c.Value)
		}
	case construction.POSIs:
		if tok.POS != "" && !strings.EqualFold(tok.POS, c.Value) {
			return fmt.Sprintf("tag %s, want %s", tok.POS, c.Value)
		}
	case construction.POSIn:
		if tok.POS != "" && !containsFold(c.Values, tok.POS) {
			return fmt.Sprintf("tag %s not in %v", tok.POS, c.Values)
		}
	case construction.LemmaIs:
		if tok.Lemma != "" && !strings.EqualFold(tok.Lemma, c.Value) {
			return fmt.Sprintf("lemma %s, want %s", tok.Lemma, c.Value)
		}
	case construction.LemmaIn:
		if tok.Lemma != "" && !containsFold(c.Values, tok.Lemma) {
			return fmt.Sprintf("lemma %s not in %v", tok.Lemma, c.Values)
		}
	}
	return ""
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// CanTokenMatch is a cheap textual pre-filter: it reports whether def's
// pattern mentions the token's tag as a slot, its word or lemma as a literal,
// contains a wildcard, or starts with an upper-case reference.
func CanTokenMatch(def *construction.Definition, tok token.Token) bool {
	p := def.Pattern
	if tok.POS != "" && (strings.Contains(p, "{"+tok.POS+"}") || strings.Contains(p, "{"+tok.POS+":")) {
		return true
	}
	if strings.Contains(p, "{*}") {
		return true
	}
	word, lemma := strings.ToLower(tok.Word), strings.ToLower(tok.Lemma)
	fields := strings.FieldsFunc(p, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`"[]()|+*`, r)
	})
	for i, f := range fields {
		if strings.HasPrefix(f, "{") {
			continue
		}
		if i == 0 && isReference(f) {
			return true
		}
		lf := strings.ToLower(f)
		if lf == word || (lemma != "" && lf == lemma) {
			return true
		}
	}
	return false
}

func isReference(f string) bool {
	letter := false
	for _, r := range f {
		if unicode.IsLower(r) {
			return false
		}
		letter = letter || unicode.IsLetter(r)
	}
	return letter
}
