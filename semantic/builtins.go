package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhamidi/cxg/pattern"
)

func registerBuiltins(c *Calculator) {
	c.Register("concat", Funcs{Calc: concat, Features: textFeature("semantic_text")})
	c.Register("lemma", Funcs{Calc: lemmas, Features: textFeature("semantic_lemma")})
	c.Register("slot", Funcs{Calc: slot, Features: textFeature("semantic_slot")})
	c.Register("count", Funcs{Calc: count, Features: func(v any) (map[string]string, error) {
		return map[string]string{"semantic_count": fmt.Sprint(v)}, nil
	}})
	c.Register("constant", Funcs{Calc: constant, Features: textFeature("semantic_value")})
	c.Register("number", Funcs{Calc: number, Features: func(v any) (map[string]string, error) {
		return map[string]string{"NumValue": strconv.FormatFloat(v.(float64), 'f', -1, 64)}, nil
	}})
}

func textFeature(key string) func(any) (map[string]string, error) {
	return func(v any) (map[string]string, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string value, got %T", v)
		}
		return map[string]string{key: s}, nil
	}
}

func separator(config map[string]any) string {
	if sep, ok := config["separator"].(string); ok {
		return sep
	}
	return " "
}

// concat joins the matched words.
func concat(m *pattern.MatchResult, config map[string]any) (any, error) {
	return strings.Join(m.MatchedTokens, separator(config)), nil
}

// lemmas joins the lemmas of the matched tokens.
func lemmas(m *pattern.MatchResult, config map[string]any) (any, error) {
	out := make([]string, len(m.Tokens))
	for i, t := range m.Tokens {
		out[i] = t.Lemma
	}
	return strings.Join(out, separator(config)), nil
}

// slot returns the word captured by the slot named in config["slot"].
func slot(m *pattern.MatchResult, config map[string]any) (any, error) {
	name, _ := config["slot"].(string)
	if name == "" {
		return nil, fmt.Errorf("slot action needs a slot name")
	}
	v, ok := m.Slots[name]
	if !ok {
		return nil, fmt.Errorf("slot %s not captured", name)
	}
	return v, nil
}

func count(m *pattern.MatchResult, _ map[string]any) (any, error) {
	return m.Len(), nil
}

func constant(_ *pattern.MatchResult, config map[string]any) (any, error) {
	v, ok := config["value"]
	if !ok {
		return nil, fmt.Errorf("constant action needs a value")
	}
	return fmt.Sprint(v), nil
}

var numerals = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "twenty": 20, "thirty": 30, "forty": 40,
	"fifty": 50, "sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100, "thousand": 1000, "million": 1000000,
}

// number evaluates a spelled-out or digit numeral such as "two hundred five".
func number(m *pattern.MatchResult, _ map[string]any) (any, error) {
	total, current := 0.0, 0.0
	seen := false
	for _, t := range m.Tokens {
		w := strings.ToLower(t.Word)
		if f, err := strconv.ParseFloat(w, 64); err == nil {
			current += f
			seen = true
			continue
		}
		v, ok := numerals[w]
		if !ok {
			continue
		}
		seen = true
		switch {
		case v == 100:
			if current == 0 {
				current = 1
			}
			current *= v
		case v >= 1000:
			if current == 0 {
				current = 1
			}
			total += current * v
			current = 0
		default:
			current += v
		}
	}
	if !seen {
		return nil, fmt.Errorf("no numeral in %q", strings.Join(m.MatchedTokens, " "))
	}
	return total + current, nil
}
