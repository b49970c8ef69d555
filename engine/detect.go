package engine

import (
	"slices"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/pattern"
	"github.com/dhamidi/cxg/token"
)

// ConstructionMatch is one construction found by Detect. End is inclusive.
type ConstructionMatch struct {
	Construction  string            `json:"construction"`
	Type          construction.Type `json:"type"`
	Priority      int               `json:"priority"`
	Start         int               `json:"start"`
	End           int               `json:"end"`
	Words         []string          `json:"words"`
	Slots         map[string]string `json:"slots,omitempty"`
	SemanticValue any               `json:"semantic_value,omitempty"`
	Features      map[string]string `json:"features,omitempty"`
}

// Detect matches every construction against the whole sentence at once,
// without the incremental machinery. Overlapping matches of the same type
// are resolved as in the incremental engine.
func (e *Engine) Detect(tokens []token.Token) []ConstructionMatch {
	if e.Registry == nil {
		return nil
	}
	matcher := pattern.NewMatcher(e.Config.MaxBacktrackDepth)

	type found struct {
		def   *construction.Definition
		match *pattern.MatchResult
		rank  rank
	}
	var all []found
	for _, def := range e.Registry.Constructions() {
		g, err := e.Registry.Graph(def)
		if err != nil {
			log.Warningf("construction %s: %s", def.Name, err)
			continue
		}
		for _, m := range matcher.MatchAll(g, tokens) {
			all = append(all, found{def: def, match: m, rank: rank{def.Priority, m.Len(), m.Start, len(all)}})
		}
	}
	slices.SortStableFunc(all, func(a, b found) int { return a.rank.compare(b.rank) })

	taken := make(map[construction.Type]map[int]bool)
	var out []ConstructionMatch
	for _, f := range all {
		tier := taken[f.def.Type]
		if tier == nil {
			tier = make(map[int]bool)
			taken[f.def.Type] = tier
		}
		if slices.ContainsFunc(positions(f.match), func(p int) bool { return tier[p] }) {
			continue
		}
		for _, p := range positions(f.match) {
			tier[p] = true
		}

		cm := ConstructionMatch{
			Construction: f.def.Name,
			Type:         f.def.Type,
			Priority:     f.def.Priority,
			Start:        f.match.Start,
			End:          f.match.End - 1,
			Words:        f.match.MatchedTokens,
			Slots:        f.match.Slots,
		}
		if f.def.Semantics != nil && e.Semantics != nil {
			res := e.Semantics.Apply(f.def.Name, f.match, f.def.Semantics)
			cm.SemanticValue, cm.Features = res.Value, res.Features
		}
		out = append(out, cm)
	}
	slices.SortStableFunc(out, func(a, b ConstructionMatch) int { return a.Start - b.Start })
	return out
}

func positions(m *pattern.MatchResult) []int {
	out := make([]int, 0, m.Len())
	for p := m.Start; p < m.End; p++ {
		out = append(out, p)
	}
	return out
}
