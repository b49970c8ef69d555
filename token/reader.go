package token

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrEmptyInput is returned when a reader finds no tokens at all.
var ErrEmptyInput = errors.New("no tokens in input")

// ReadJSON reads either a single sentence (an array of token records) or a
// list of sentences (an array of arrays).
func ReadJSON(r io.Reader) ([][]Token, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	var sentences [][]Raw
	if err := json.Unmarshal(data, &sentences); err != nil {
		var single []Raw
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("decode tokens: %w", err2)
		}
		sentences = [][]Raw{single}
	}

	var out [][]Token
	for i, raws := range sentences {
		tokens, err := Normalize(raws)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		if len(tokens) > 0 {
			out = append(out, tokens)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}

// ReadCoNLLU reads sentences in CoNLL-U format. Comment lines, multi-word
// token ranges (1-2) and empty nodes (1.1) are skipped.
func ReadCoNLLU(r io.Reader) ([][]Token, error) {
	var sentences [][]Token
	var current []Raw

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		tokens, err := Normalize(current)
		if err != nil {
			return fmt.Errorf("sentence %d: %w", len(sentences), err)
		}
		sentences = append(sentences, tokens)
		current = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 columns, got %d", lineNo, len(cols))
		}
		if strings.ContainsAny(cols[0], "-.") {
			continue
		}
		raw := Raw{Form: cols[1], Lemma: cols[2], UPOS: cols[3]}
		if len(cols) > 5 {
			feats, _ := json.Marshal(cols[5])
			raw.Feats = feats
		}
		current = append(current, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read conllu: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, ErrEmptyInput
	}
	return sentences, nil
}

// ReadFile picks a reader by file extension: .conllu/.conll use ReadCoNLLU,
// everything else is treated as JSON.
func ReadFile(name string, r io.Reader) ([][]Token, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".conllu", ".conll":
		return ReadCoNLLU(r)
	default:
		return ReadJSON(r)
	}
}
