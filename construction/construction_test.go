package construction

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhamidi/cxg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrammar = `grammar: sample
constructions:
  - name: goal_against
    construction_type: mwe
    pattern: '"goal" "against"'
    priority: 150
    lookahead_enabled: true
    invalidation_patterns:
      - pattern: "{DET}"
        description: object follows
    element_labels:
      NOUN: head
  - name: np_det_noun
    construction_type: phrasal
    pattern: '{DET} {NOUN}'
    priority: 60
    ce:
      phrasal: np
    element_labels:
      DET: det
      NOUN: head
    constraints:
      - type: agrees_with
        element: DET
        features: [Number]
`

func TestTypeRank(t *testing.T) {
	assert.Greater(t, TypeMWE.Rank(), TypePhrasal.Rank())
	assert.Greater(t, TypePhrasal.Rank(), TypeClausal.Rank())
	assert.Greater(t, TypeClausal.Rank(), TypeSentential.Rank())
	assert.False(t, Type("lexical").Valid())

	lo, hi := TypeMWE.PriorityRange()
	assert.Equal(t, 100, lo)
	assert.Equal(t, 199, hi)
}

func TestParse(t *testing.T) {
	g, err := Parse([]byte(sampleGrammar))
	require.NoError(t, err)
	assert.Equal(t, "sample", g.ID)
	require.Len(t, g.Constructions, 2)

	mwe := g.Constructions[0]
	assert.True(t, mwe.IsMWE())
	assert.True(t, mwe.LookaheadEnabled)
	assert.Equal(t, DefaultLookaheadDistance, mwe.LookaheadDistance())
	require.Len(t, mwe.InvalidationPatterns, 1)
	assert.Equal(t, "{DET}", mwe.InvalidationPatterns[0].Pattern)

	np := g.Constructions[1]
	assert.Equal(t, "np", np.CE.Phrasal)
	require.Len(t, np.Constraints, 1)
	assert.Equal(t, AgreesWith, np.Constraints[0].Type)
	assert.Equal(t, []string{"Number"}, np.Constraints[0].Features)

	warnings, err := Validate(g.Constructions)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("grammar: empty\nconstructions: []\n"))
	assert.ErrorIs(t, err, ErrNoConstructions)

	_, err = Parse([]byte("constructions:\n  - name: x\n    bogus: 1\n"))
	assert.Error(t, err)

	_, err = Parse(nil)
	assert.ErrorIs(t, err, ErrNoConstructions)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		defs    []*Definition
		wantErr bool
		warns   int
	}{
		{"ok", []*Definition{{Name: "a", Type: TypePhrasal, Pattern: "{NOUN}", Priority: 60}}, false, 0},
		{"empty name", []*Definition{{Type: TypePhrasal, Pattern: "{NOUN}", Priority: 60}}, true, 0},
		{"unknown type", []*Definition{{Name: "a", Type: "lexical", Pattern: "{NOUN}"}}, true, 0},
		{"bad pattern", []*Definition{{Name: "a", Type: TypePhrasal, Pattern: "[{NOUN}", Priority: 60}}, true, 0},
		{"duplicate", []*Definition{
			{Name: "a", Type: TypePhrasal, Pattern: "{NOUN}", Priority: 60},
			{Name: "a", Type: TypePhrasal, Pattern: "{VERB}", Priority: 60},
		}, true, 0},
		{"priority out of range", []*Definition{{Name: "a", Type: TypeMWE, Pattern: "a b", Priority: 10}}, false, 1},
		{"unknown constraint", []*Definition{{Name: "a", Type: TypePhrasal, Pattern: "{NOUN}", Priority: 60,
			Constraints: []Constraint{{Type: "feature_like"}}}}, true, 0},
		{"incomplete constraint", []*Definition{{Name: "a", Type: TypePhrasal, Pattern: "{NOUN}", Priority: 60,
			Constraints: []Constraint{{Type: FeatureEquals, Feature: "Number"}}}}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := Validate(tt.defs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDefinition))
				var verr *ValidationError
				assert.True(t, errors.As(err, &verr))
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, warnings, tt.warns)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleGrammar), 0o644))

	g, warnings, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "sample", g.ID)

	noID := filepath.Join(dir, "latin.yml")
	require.NoError(t, os.WriteFile(noID, []byte("constructions:\n  - name: a\n    construction_type: phrasal\n    pattern: '{NOUN}'\n    priority: 60\n"), 0o644))
	g, _, err = LoadFile(noID)
	require.NoError(t, err)
	assert.Equal(t, "latin", g.ID)

	_, _, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLabelFor(t *testing.T) {
	def := &Definition{ElementLabels: map[string]string{"NOUN": "head", "of": "marker", "DET": "det"}}
	assert.Equal(t, "head", def.LabelFor(token.Token{Word: "cat", POS: "NOUN"}))
	assert.Equal(t, "marker", def.LabelFor(token.Token{Word: "Of", POS: "ADP"}))
	assert.Equal(t, "", def.LabelFor(token.Token{Word: "run", POS: "VERB"}))
	assert.Equal(t, "NOUN", def.ExpectedPOS("head"))
	assert.Equal(t, "", def.ExpectedPOS("marker"))
}

func TestCanSkip(t *testing.T) {
	def := &Definition{Skippable: []string{"ADV", "punct"}}
	assert.True(t, def.CanSkip(token.Token{POS: "ADV"}))
	assert.True(t, def.CanSkip(token.Token{POS: "PUNCT"}))
	assert.False(t, def.CanSkip(token.Token{POS: "NOUN"}))
}

func TestHead(t *testing.T) {
	def := Head("adp")
	assert.Equal(t, "HEAD_ADP", def.Name)
	assert.Equal(t, TypePhrasal, def.Type)
	assert.Equal(t, "{ADP}", def.Pattern)
	assert.Equal(t, HeadPriority, def.Priority)

	warnings, err := Validate([]*Definition{def})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestLocate(t *testing.T) {
	locs, err := Locate([]byte(sampleGrammar))
	require.NoError(t, err)
	require.Len(t, locs, 2)

	assert.Equal(t, "goal_against", locs[0].Name)
	assert.Equal(t, 3, locs[0].Entry.Line)
	assert.Equal(t, Position{Line: 5, Column: 14}, locs[0].Field("pattern"))
	assert.Equal(t, "np_det_noun", locs[1].Name)
	assert.Equal(t, locs[1].Entry, locs[1].Field("semantics"))

	_, err = Locate([]byte("constructions: [\n"))
	assert.Error(t, err)
}
