package format

import (
	"fmt"
	"io"
	"strings"
)

// LineEncoder writes one tab-separated record per line, led by its kind.
type LineEncoder struct {
	w      io.Writer
	result *Result
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(r *Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	r := e.result
	if r == nil {
		return nil, nil
	}

	fmt.Fprintf(&sb, "sentence\t%d\t%s\n", r.Sentence, strings.Join(r.Words, " "))

	for _, n := range r.Nodes {
		fmt.Fprintf(&sb, "node\t%d\t%s\t%s\t%s\t%s\t%s\n",
			n.ID,
			n.Construction,
			n.Type,
			span(n.Start, n.End),
			n.Text,
			valueStr(n.SemanticValue),
		)
	}

	for _, ed := range r.Edges {
		fmt.Fprintf(&sb, "edge\t%d\t%d\t%s\t%.2f\n", ed.From, ed.To, ed.Type, ed.Score)
	}

	for _, p := range r.Partials {
		fmt.Fprintf(&sb, "partial\t%s\t%s\t%s\t%.2f\n",
			p.Construction,
			span(p.Start, p.End),
			strings.Join(p.Words, " "),
			p.Confidence,
		)
	}

	for _, m := range r.Matches {
		fmt.Fprintf(&sb, "match\t%s\t%s\t%s\t%s\t%s\n",
			m.Construction,
			m.Type,
			span(m.Start, m.End),
			strings.Join(m.Words, " "),
			valueStr(m.SemanticValue),
		)
	}

	for _, g := range r.Ghosts {
		fmt.Fprintf(&sb, "ghost\t%d\t%s\t%s\t%s\t%s\n", g.ID, g.Type, g.ExpectedCE, strings.Join(g.ExpectedPOS, ","), g.State)
	}

	for _, op := range r.Log {
		fmt.Fprintf(&sb, "op\t%d\t%s\t%s\n", op.Position, op.Kind, op.Reason)
	}

	return []byte(sb.String()), nil
}

func span(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}

func valueStr(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
