// Package mwe decides and finalizes multi-word expressions: the lookahead
// that confirms or invalidates a tentatively complete expression, and the
// aggregation (or component preservation) that follows.
package mwe

import (
	"fmt"
	"strings"

	"github.com/dhamidi/cxg/alternative"
	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cxg.mwe")

// Decision is the outcome of a lookahead check.
type Decision string

const (
	Confirmed   Decision = "confirmed"
	Invalidated Decision = "invalidated"
	Undecided   Decision = "pending"
)

// LookaheadResult explains a decision.
type LookaheadResult struct {
	Status  Decision
	Reason  string
	Matched *token.Token
}

// Lookahead inspects the tokens following a tentatively complete expression.
type Lookahead struct{}

// Check looks at the tokens after alt, up to the construction's lookahead
// distance and never beyond current, the last position seen. Invalidation
// patterns are tried before confirmation patterns for each token. An
// expression ending the sentence is confirmed.
func (Lookahead) Check(alt *alternative.State, def *construction.Definition, tokens []token.Token, current int) LookaheadResult {
	if alt.Current >= len(tokens)-1 {
		return LookaheadResult{Status: Confirmed, Reason: "end of sentence"}
	}
	last := min(alt.Current+def.LookaheadDistance(), current, len(tokens)-1)
	for p := alt.Current + 1; p <= last; p++ {
		tok := tokens[p]
		for _, lp := range def.InvalidationPatterns {
			if MatchesPattern(lp.Pattern, tok) {
				return LookaheadResult{Status: Invalidated, Reason: reason("invalidated", lp, tok), Matched: &tok}
			}
		}
		for _, lp := range def.ConfirmationPatterns {
			if MatchesPattern(lp.Pattern, tok) {
				return LookaheadResult{Status: Confirmed, Reason: reason("confirmed", lp, tok), Matched: &tok}
			}
		}
	}
	return LookaheadResult{Status: Undecided, Reason: fmt.Sprintf("no decision within %d of %d tokens", last-alt.Current, def.LookaheadDistance())}
}

func reason(verb string, lp construction.LookaheadPattern, tok token.Token) string {
	if lp.Description != "" {
		return fmt.Sprintf("%s by %s at %d: %s", verb, lp.Pattern, tok.Position, lp.Description)
	}
	return fmt.Sprintf("%s by %s at %d", verb, lp.Pattern, tok.Position)
}

// ExceededWindow reports whether every token of alt's lookahead window has
// been seen by position current without a decision.
func (Lookahead) ExceededWindow(alt *alternative.State, def *construction.Definition, current int) bool {
	if current-alt.Current >= def.LookaheadDistance() {
		return true
	}
	return alt.Lookahead != nil && alt.Lookahead.Counter > def.LookaheadDistance()
}

// MatchesPattern tests one lookahead pattern against a token: {POS}, a quoted
// or bare word matched against word or lemma, or an OR-list joined by "|".
func MatchesPattern(p string, tok token.Token) bool {
	for _, alt := range strings.Split(p, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if strings.HasPrefix(alt, "{") && strings.HasSuffix(alt, "}") {
			if strings.EqualFold(strings.TrimSpace(alt[1:len(alt)-1]), tok.POS) {
				return true
			}
			continue
		}
		word := strings.Trim(alt, `"'`)
		if strings.EqualFold(word, tok.Word) || (tok.Lemma != "" && strings.EqualFold(word, tok.Lemma)) {
			return true
		}
	}
	return false
}
