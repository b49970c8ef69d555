package lsp

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/pattern"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

// Diagnostic is a problem found in a grammar document. Line and Column are
// 0-based; EndColumn is exclusive.
type Diagnostic struct {
	Line      int
	Column    int
	EndColumn int
	Severity  Severity
	Message   string
}

var yamlLine = regexp.MustCompile(`line (\d+): ([^\n]+)`)

// Diagnose checks a grammar document and reports YAML errors, invalid
// definitions, pattern syntax errors and priority warnings, sorted by
// position.
func Diagnose(data []byte) []Diagnostic {
	locs, err := construction.Locate(data)
	if err != nil {
		return yamlDiagnostics(err)
	}
	g, err := construction.Parse(data)
	if errors.Is(err, construction.ErrNoConstructions) {
		return []Diagnostic{{EndColumn: 1, Severity: SeverityWarning, Message: err.Error()}}
	}
	if err != nil {
		return yamlDiagnostics(err)
	}

	doc := &document{lines: strings.Split(string(data), "\n"), locs: locs}
	var out []Diagnostic

	for i, def := range g.Constructions {
		v := pattern.Validate(def.Pattern)
		if v.Valid {
			continue
		}
		pos := doc.location(i).Field("pattern")
		col, exact := doc.valueColumn(pos)
		for _, e := range v.Errors {
			d := Diagnostic{Line: pos.Line - 1, Column: col, Severity: SeverityError, Message: e.Message}
			if exact {
				d.Column += e.Offset
			}
			d.EndColumn = d.Column + 1
			out = append(out, d)
		}
	}

	warnings, err := construction.Validate(g.Constructions)
	for _, ve := range validationErrors(err) {
		if ve.Field == "pattern" {
			continue
		}
		pos := doc.location(ve.Index).Field(fieldName(ve.Field))
		out = append(out, doc.at(pos, SeverityError, fmt.Sprintf("%s: %s", ve.Field, ve.Msg)))
	}
	for _, w := range warnings {
		pos := construction.Position{Line: 1, Column: 1}
		for _, loc := range locs {
			if loc.Name != "" && strings.HasPrefix(w, "construction "+loc.Name+":") {
				pos = loc.Entry
				break
			}
		}
		out = append(out, doc.at(pos, SeverityWarning, w))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

func yamlDiagnostics(err error) []Diagnostic {
	matches := yamlLine.FindAllStringSubmatch(err.Error(), -1)
	if len(matches) == 0 {
		return []Diagnostic{{EndColumn: 1, Severity: SeverityError, Message: err.Error()}}
	}
	out := make([]Diagnostic, 0, len(matches))
	for _, m := range matches {
		line, _ := strconv.Atoi(m[1])
		out = append(out, Diagnostic{Line: max(line-1, 0), EndColumn: 1, Severity: SeverityError, Message: strings.TrimSpace(m[2])})
	}
	return out
}

func validationErrors(err error) []*construction.ValidationError {
	if err == nil {
		return nil
	}
	var out []*construction.ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, validationErrors(e)...)
		}
		return out
	}
	var ve *construction.ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve)
	}
	return out
}

// fieldName strips an index suffix: "constraints[2]" becomes "constraints".
func fieldName(field string) string {
	name, _, _ := strings.Cut(field, "[")
	return name
}

type document struct {
	lines []string
	locs  []construction.Location
}

func (d *document) location(i int) construction.Location {
	if i >= 0 && i < len(d.locs) {
		return d.locs[i]
	}
	return construction.Location{Entry: construction.Position{Line: 1, Column: 1}}
}

// valueColumn returns the 0-based column at which a scalar's content starts
// and whether offsets into the value map onto that line.
func (d *document) valueColumn(pos construction.Position) (int, bool) {
	col := max(pos.Column-1, 0)
	if pos.Line < 1 || pos.Line > len(d.lines) {
		return col, false
	}
	line := d.lines[pos.Line-1]
	if col >= len(line) {
		return col, false
	}
	switch line[col] {
	case '\'', '"':
		return col + 1, true
	case '|', '>':
		return col, false
	}
	return col, true
}

func (d *document) at(pos construction.Position, sev Severity, msg string) Diagnostic {
	col := max(pos.Column-1, 0)
	end := col + 1
	if pos.Line >= 1 && pos.Line <= len(d.lines) {
		if n := len(strings.TrimRight(d.lines[pos.Line-1], " \t\r")); n > col {
			end = n
		}
	}
	return Diagnostic{Line: max(pos.Line-1, 0), Column: col, EndColumn: end, Severity: sev, Message: msg}
}
