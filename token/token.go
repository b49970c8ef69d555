// Package token defines the morphologically tagged input units consumed by the
// parser engines, and the readers that produce them from tagger output.
package token

import (
	"fmt"
	"sort"
	"strings"
)

// Token is one tagged word of a sentence. Tokens are immutable once produced.
type Token struct {
	Word     string            `json:"word"`
	Lemma    string            `json:"lemma"`
	POS      string            `json:"pos"`
	Features map[string]string `json:"features,omitempty"`
	Position int               `json:"position"`
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%s/%s", t.Position, t.Word, t.POS)
}

// Feature returns the value of a morphological feature.
func (t Token) Feature(key string) (string, bool) {
	if t.Features == nil {
		return "", false
	}
	v, ok := t.Features[key]
	return v, ok
}

// HasFeature reports whether the token carries the given feature.
func (t Token) HasFeature(key string) bool {
	_, ok := t.Feature(key)
	return ok
}

// Words returns the surface forms of tokens in order.
func Words(tokens []Token) []string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Word
	}
	return words
}

// ParseFeatures parses a UD feature string such as "Gender=Masc|Number=Sing".
// The underscore placeholder yields an empty map.
func ParseFeatures(s string) map[string]string {
	s = strings.TrimSpace(s)
	feats := make(map[string]string)
	if s == "" || s == "_" {
		return feats
	}
	for _, part := range strings.Split(s, "|") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			continue
		}
		feats[key] = value
	}
	return feats
}

// FormatFeatures renders a feature map in UD order (sorted by key).
func FormatFeatures(feats map[string]string) string {
	if len(feats) == 0 {
		return "_"
	}
	keys := make([]string, 0, len(feats))
	for k := range feats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + feats[k]
	}
	return strings.Join(parts, "|")
}
