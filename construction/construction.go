// Package construction defines grammar rules ("constructions") and the YAML
// grammar files they are loaded from. Definitions are read-only once loaded
// and may be shared across concurrent parses.
package construction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhamidi/cxg/token"
)

// Type is the tier of a construction.
type Type string

const (
	TypeMWE        Type = "mwe"
	TypePhrasal    Type = "phrasal"
	TypeClausal    Type = "clausal"
	TypeSentential Type = "sentential"
)

// Rank orders tiers: mwe > phrasal > clausal > sentential. Unknown types rank 0.
func (t Type) Rank() int {
	switch t {
	case TypeMWE:
		return 4
	case TypePhrasal:
		return 3
	case TypeClausal:
		return 2
	case TypeSentential:
		return 1
	}
	return 0
}

// Valid reports whether t is one of the four tiers.
func (t Type) Valid() bool {
	return t.Rank() > 0
}

// PriorityRange returns the conventional priority range of a tier.
func (t Type) PriorityRange() (lo, hi int) {
	switch t {
	case TypeMWE:
		return 100, 199
	case TypePhrasal:
		return 50, 99
	case TypeClausal:
		return 20, 49
	case TypeSentential:
		return 1, 19
	}
	return 0, 0
}

// Constraint kinds understood by the constraint checker.
const (
	FeatureEquals = "feature_equals"
	FeatureIn     = "feature_in"
	FeatureNot    = "feature_not"
	AgreesWith    = "agrees_with"
	POSIs         = "pos_is"
	POSIn         = "pos_in"
	LemmaIs       = "lemma_is"
	LemmaIn       = "lemma_in"
)

// Constraint is one declarative check on a candidate token.
type Constraint struct {
	Type    string   `yaml:"type" json:"type"`
	Feature string   `yaml:"feature,omitempty" json:"feature,omitempty"`
	Value   string   `yaml:"value,omitempty" json:"value,omitempty"`
	Values  []string `yaml:"values,omitempty" json:"values,omitempty"`
	// Element names the previously matched element agrees_with refers to,
	// by part-of-speech tag or word.
	Element  string   `yaml:"element,omitempty" json:"element,omitempty"`
	Features []string `yaml:"features,omitempty" json:"features,omitempty"`
	// Target restricts the constraint to tokens with this part-of-speech.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	// Index restricts the constraint to the n-th matched element (0-based).
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`
}

func (c Constraint) String() string {
	switch c.Type {
	case FeatureEquals, FeatureNot:
		return fmt.Sprintf("%s(%s=%s)", c.Type, c.Feature, c.Value)
	case FeatureIn:
		return fmt.Sprintf("%s(%s in %s)", c.Type, c.Feature, strings.Join(c.Values, ","))
	case AgreesWith:
		return fmt.Sprintf("%s(%s on %s)", c.Type, c.Element, strings.Join(c.Features, ","))
	case POSIs, LemmaIs:
		return fmt.Sprintf("%s(%s)", c.Type, c.Value)
	default:
		return fmt.Sprintf("%s(%s)", c.Type, strings.Join(c.Values, ","))
	}
}

// LookaheadPattern is a confirmation or invalidation pattern: {POS},
// "word", or an OR-list of those joined by "|".
type LookaheadPattern struct {
	Pattern     string `yaml:"pattern" json:"pattern"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Semantics names the semantic calculator action of a construction.
type Semantics struct {
	Method string         `yaml:"method" json:"method"`
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// CELabels are the construction-element labels written on output nodes.
type CELabels struct {
	Phrasal    string `yaml:"phrasal,omitempty" json:"phrasal,omitempty"`
	Clausal    string `yaml:"clausal,omitempty" json:"clausal,omitempty"`
	Sentential string `yaml:"sentential,omitempty" json:"sentential,omitempty"`
}

// Empty reports whether no label is set.
func (l CELabels) Empty() bool {
	return l.Phrasal == "" && l.Clausal == "" && l.Sentential == ""
}

// DefaultLookaheadDistance applies when lookahead is enabled without a distance.
const DefaultLookaheadDistance = 3

// Definition is one construction of a grammar.
type Definition struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Type    Type   `yaml:"construction_type" json:"construction_type"`
	Pattern string `yaml:"pattern" json:"pattern"`
	// Priority decides overlaps; higher wins.
	Priority    int          `yaml:"priority" json:"priority"`
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`

	LookaheadEnabled     bool               `yaml:"lookahead_enabled,omitempty" json:"lookahead_enabled,omitempty"`
	LookaheadMaxDistance int                `yaml:"lookahead_max_distance,omitempty" json:"lookahead_max_distance,omitempty"`
	InvalidationPatterns []LookaheadPattern `yaml:"invalidation_patterns,omitempty" json:"invalidation_patterns,omitempty"`
	ConfirmationPatterns []LookaheadPattern `yaml:"confirmation_patterns,omitempty" json:"confirmation_patterns,omitempty"`

	CE                CELabels          `yaml:"ce,omitempty" json:"ce,omitempty"`
	MandatoryElements []string          `yaml:"mandatory_elements,omitempty" json:"mandatory_elements,omitempty"`
	ElementLabels     map[string]string `yaml:"element_labels,omitempty" json:"element_labels,omitempty"`

	AggregateAs string            `yaml:"aggregate_as,omitempty" json:"aggregate_as,omitempty"`
	Skippable   []string          `yaml:"skippable,omitempty" json:"skippable,omitempty"`
	Semantics   *Semantics        `yaml:"semantics,omitempty" json:"semantics,omitempty"`
	Features    map[string]string `yaml:"features,omitempty" json:"features,omitempty"`
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s[%s,%d]", d.Name, d.Type, d.Priority)
}

// IsMWE reports whether d is a multi-word expression.
func (d *Definition) IsMWE() bool {
	return d.Type == TypeMWE
}

// LookaheadDistance is the effective lookahead window size.
func (d *Definition) LookaheadDistance() int {
	if d.LookaheadMaxDistance > 0 {
		return d.LookaheadMaxDistance
	}
	return DefaultLookaheadDistance
}

// CanSkip reports whether an alternative of d may step over tok.
func (d *Definition) CanSkip(tok token.Token) bool {
	for _, pos := range d.Skippable {
		if strings.EqualFold(pos, tok.POS) {
			return true
		}
	}
	return false
}

// LabelFor returns the construction-element label of a matched token, looked
// up by part-of-speech first and lower-cased word second.
func (d *Definition) LabelFor(tok token.Token) string {
	if len(d.ElementLabels) == 0 {
		return ""
	}
	if label, ok := d.ElementLabels[tok.POS]; ok {
		return label
	}
	return d.ElementLabels[strings.ToLower(tok.Word)]
}

// ExpectedPOS returns the part-of-speech tag labelled with ce, preferring
// upper-case keys (tags) over word keys, in sorted order.
func (d *Definition) ExpectedPOS(ce string) string {
	keys := make([]string, 0, len(d.ElementLabels))
	for k, v := range d.ElementLabels {
		if v == ce && k == strings.ToUpper(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// HeadPriority is the priority of synthesised HEAD_<POS> constructions.
const HeadPriority = 80

// HeadPrefix prefixes the names of synthesised head constructions.
const HeadPrefix = "HEAD_"

// Head synthesises the single-token phrasal construction used when a
// component of an invalidated multi-word expression is re-exposed.
func Head(pos string) *Definition {
	pos = strings.ToUpper(pos)
	return &Definition{
		Name:     HeadPrefix + pos,
		Type:     TypePhrasal,
		Pattern:  "{" + pos + "}",
		Priority: HeadPriority,
		CE:       CELabels{Phrasal: "head"},
	}
}
