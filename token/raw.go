package token

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Raw is a token record as emitted by an upstream tagger. Taggers disagree on
// field names, so every field that has known aliases is kept separately and
// resolved once by Normalize.
type Raw struct {
	Word  string `json:"word,omitempty"`
	Form  string `json:"form,omitempty"`
	Text  string `json:"text,omitempty"`
	Lemma string `json:"lemma,omitempty"`
	UPOS  string `json:"upos,omitempty"`
	POS   string `json:"pos,omitempty"`
	Tag   string `json:"tag,omitempty"`

	// Feats is either a JSON object or a UD feature string.
	Feats json.RawMessage `json:"feats,omitempty"`
	// Features is the object-only spelling used by some services.
	Features map[string]string `json:"features,omitempty"`

	Position *int `json:"position,omitempty"`
	Index    *int `json:"index,omitempty"`
	// ID is the 1-based UD token id.
	ID *int `json:"id,omitempty"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r Raw) features() (map[string]string, error) {
	feats := make(map[string]string)
	for k, v := range r.Features {
		feats[k] = v
	}
	if len(r.Feats) == 0 || string(r.Feats) == "null" {
		return feats, nil
	}
	switch r.Feats[0] {
	case '{':
		var m map[string]string
		if err := json.Unmarshal(r.Feats, &m); err != nil {
			return nil, fmt.Errorf("feats object: %w", err)
		}
		for k, v := range m {
			feats[k] = v
		}
	case '"':
		var s string
		if err := json.Unmarshal(r.Feats, &s); err != nil {
			return nil, fmt.Errorf("feats string: %w", err)
		}
		for k, v := range ParseFeatures(s) {
			feats[k] = v
		}
	default:
		return nil, fmt.Errorf("feats: unsupported value %s", string(r.Feats))
	}
	return feats, nil
}

func (r Raw) position() (int, bool) {
	switch {
	case r.Position != nil:
		return *r.Position, true
	case r.Index != nil:
		return *r.Index, true
	case r.ID != nil:
		return *r.ID - 1, true
	}
	return 0, false
}

// Normalize resolves the alias chains of raw records into Tokens.
// Positions are taken from the records when they are present and strictly
// increasing from zero; otherwise tokens are renumbered in input order.
func Normalize(raws []Raw) ([]Token, error) {
	tokens := make([]Token, 0, len(raws))
	consistent := true
	for i, r := range raws {
		word := firstNonEmpty(r.Word, r.Form, r.Text)
		if word == "" {
			return nil, fmt.Errorf("token %d: missing word", i)
		}
		feats, err := r.features()
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		lemma := r.Lemma
		if lemma == "" || lemma == "_" {
			lemma = strings.ToLower(word)
		}
		pos, ok := r.position()
		if !ok || pos != i {
			consistent = false
		}
		tokens = append(tokens, Token{
			Word:     word,
			Lemma:    lemma,
			POS:      strings.ToUpper(firstNonEmpty(r.UPOS, r.POS, r.Tag)),
			Features: feats,
			Position: pos,
		})
	}
	if !consistent {
		for i := range tokens {
			tokens[i].Position = i
		}
	}
	return tokens, nil
}
