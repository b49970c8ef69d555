// Package ghost manages speculative placeholder nodes for mandatory
// construction elements that have not been seen (yet).
package ghost

import (
	"fmt"
	"slices"
	"strings"
)

// Type classifies a ghost by the kind of element it stands for.
type Type string

const (
	ImplicitHead     Type = "implicit_head"
	SubjectPro       Type = "subject_pro"
	DroppedArgument  Type = "dropped_argument"
	ImplicitModifier Type = "implicit_modifier"
)

// InferType derives the ghost type from the missing element's label.
func InferType(ce string) Type {
	l := strings.ToLower(ce)
	switch {
	case strings.Contains(l, "subj"):
		return SubjectPro
	case strings.Contains(l, "head"):
		return ImplicitHead
	case strings.Contains(l, "mod"), strings.Contains(l, "adj"), strings.Contains(l, "adv"):
		return ImplicitModifier
	}
	return DroppedArgument
}

// DefaultPOS returns the tags a ghost of type t accepts when no specific tag
// is expected.
func DefaultPOS(t Type) []string {
	switch t {
	case SubjectPro:
		return []string{"PRON", "NOUN", "PROPN"}
	case ImplicitHead:
		return []string{"NOUN", "PROPN", "VERB", "PRON"}
	case ImplicitModifier:
		return []string{"ADJ", "ADV", "ADP"}
	}
	return []string{"NOUN", "PROPN", "PRON"}
}

// State is the lifecycle of a ghost. Fulfilled and Expired are terminal.
type State string

const (
	Pending   State = "pending"
	Fulfilled State = "fulfilled"
	Expired   State = "expired"
)

// Ghost is a placeholder node. Ids are negative.
type Ghost struct {
	ID                    int               `json:"id"`
	Type                  Type              `json:"ghost_type"`
	CreatedAt             int               `json:"created_at_position"`
	CreatedByAlternative  int               `json:"created_by_alternative"`
	CreatedByConstruction string            `json:"created_by_construction"`
	ExpectedCE            string            `json:"expected_ce"`
	ExpectedPOS           []string          `json:"expected_pos,omitempty"`
	ExpectedFeatures      map[string]string `json:"expected_features,omitempty"`
	State                 State             `json:"state"`
	FulfilledBy           int               `json:"fulfilled_by,omitempty"`
	FulfilledAt           int               `json:"fulfilled_at,omitempty"`
	ExpiredAt             int               `json:"expired_at,omitempty"`
}

func (g *Ghost) String() string {
	return fmt.Sprintf("ghost %d %s(%s) %s", g.ID, g.Type, g.ExpectedCE, g.State)
}

// Candidate describes a real node offered for fulfilment.
type Candidate struct {
	ID       int
	POS      string
	CE       string
	Features map[string]string
}

// Compatible applies the type-specific predicate: the candidate's tag must
// be expected, a label it carries must match, and features present on both
// sides must agree.
func (g *Ghost) Compatible(c Candidate) bool {
	if g.State != Pending {
		return false
	}
	accepted := g.ExpectedPOS
	if len(accepted) == 0 {
		accepted = DefaultPOS(g.Type)
	}
	if !slices.Contains(accepted, c.POS) {
		return false
	}
	if c.CE != "" && g.ExpectedCE != "" && c.CE != g.ExpectedCE {
		return false
	}
	for k, want := range g.ExpectedFeatures {
		if got, ok := c.Features[k]; ok && got != want {
			return false
		}
	}
	return true
}
