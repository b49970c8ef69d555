package construction

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhamidi/cxg/pattern"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConstructions is returned for a grammar file without constructions.
	ErrNoConstructions = errors.New("grammar has no constructions")

	// ErrInvalidDefinition classifies definition validation failures.
	ErrInvalidDefinition = errors.New("invalid construction definition")
)

// Grammar is the content of one grammar file.
type Grammar struct {
	ID            string        `yaml:"grammar" json:"grammar"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	Constructions []*Definition `yaml:"constructions" json:"constructions"`
}

// Parse decodes a YAML grammar document. It does not validate definitions.
func Parse(data []byte) (*Grammar, error) {
	var g Grammar
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoConstructions
		}
		return nil, fmt.Errorf("decode grammar: %w", err)
	}
	if len(g.Constructions) == 0 {
		return nil, ErrNoConstructions
	}
	for i, def := range g.Constructions {
		if def == nil {
			return nil, fmt.Errorf("construction %d: empty entry: %w", i, ErrInvalidDefinition)
		}
		def.Type = Type(strings.ToLower(string(def.Type)))
	}
	return &g, nil
}

// LoadFile reads, decodes and validates a grammar file. Validation warnings are
// returned alongside the grammar.
func LoadFile(path string) (*Grammar, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.ID == "" {
		g.ID = strings.TrimSuffix(strings.TrimSuffix(baseName(path), ".yaml"), ".yml")
	}
	warnings, err := Validate(g.Constructions)
	if err != nil {
		return nil, warnings, fmt.Errorf("%s: %w", path, err)
	}
	return g, warnings, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ValidationError reports one invalid definition.
type ValidationError struct {
	Index int
	Name  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("construction %s: %s: %s", name, e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDefinition
}

// Validate checks a set of definitions. Empty names, unknown types, invalid
// patterns, unknown constraint kinds and duplicate names are errors; a
// priority outside the tier's range is only a warning.
func Validate(defs []*Definition) (warnings []string, err error) {
	var errs []error
	seen := make(map[string]int)

	for i, def := range defs {
		fail := func(field, format string, args ...any) {
			errs = append(errs, &ValidationError{Index: i, Name: def.Name, Field: field, Msg: fmt.Sprintf(format, args...)})
		}

		if strings.TrimSpace(def.Name) == "" {
			fail("name", "must not be empty")
		} else if prev, ok := seen[def.Name]; ok {
			fail("name", "duplicate of construction #%d", prev)
		} else {
			seen[def.Name] = i
		}

		if !def.Type.Valid() {
			fail("construction_type", "unknown type %q", def.Type)
		} else if lo, hi := def.Type.PriorityRange(); def.Priority < lo || def.Priority > hi {
			warnings = append(warnings, fmt.Sprintf("construction %s: priority %d outside %s range %d-%d", def.Name, def.Priority, def.Type, lo, hi))
		}

		if v := pattern.Validate(def.Pattern); !v.Valid {
			fail("pattern", "%s", strings.Join(v.Messages(), "; "))
		}

		for j, c := range def.Constraints {
			if msg := checkConstraint(c); msg != "" {
				fail(fmt.Sprintf("constraints[%d]", j), "%s", msg)
			}
		}

		if def.LookaheadMaxDistance < 0 {
			fail("lookahead_max_distance", "must not be negative")
		}
		if !def.LookaheadEnabled && (len(def.InvalidationPatterns) > 0 || len(def.ConfirmationPatterns) > 0) {
			warnings = append(warnings, fmt.Sprintf("construction %s: lookahead patterns ignored while lookahead_enabled is false", def.Name))
		}
	}

	return warnings, errors.Join(errs...)
}

func checkConstraint(c Constraint) string {
	switch c.Type {
	case FeatureEquals, FeatureNot:
		if c.Feature == "" || c.Value == "" {
			return c.Type + " needs feature and value"
		}
	case FeatureIn:
		if c.Feature == "" || len(c.Values) == 0 {
			return c.Type + " needs feature and values"
		}
	case AgreesWith:
		if c.Element == "" || len(c.Features) == 0 {
			return c.Type + " needs element and features"
		}
	case POSIs, LemmaIs:
		if c.Value == "" {
			return c.Type + " needs value"
		}
	case POSIn, LemmaIn:
		if len(c.Values) == 0 {
			return c.Type + " needs values"
		}
	default:
		return fmt.Sprintf("unknown constraint type %q", c.Type)
	}
	if c.Index != nil && *c.Index < 0 {
		return "index must not be negative"
	}
	return ""
}
