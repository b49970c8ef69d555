package construction

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Position is a 1-based line and column in a grammar document.
type Position struct {
	Line   int
	Column int
}

// Location records where a construction and its fields appear in the source.
type Location struct {
	Index  int
	Name   string
	Entry  Position
	Fields map[string]Position
}

// Field returns the position of a field's value, falling back to the entry.
func (l Location) Field(name string) Position {
	if p, ok := l.Fields[name]; ok {
		return p
	}
	return l.Entry
}

// Locate walks the YAML node tree of a grammar document and returns one
// location per construction entry, in order.
func Locate(data []byte) ([]Location, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: grammar must be a mapping", root.Line)
	}

	list := mappingValue(root, "constructions")
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil, nil
	}

	locs := make([]Location, 0, len(list.Content))
	for i, entry := range list.Content {
		loc := Location{
			Index:  i,
			Entry:  Position{Line: entry.Line, Column: entry.Column},
			Fields: make(map[string]Position),
		}
		if entry.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(entry.Content); j += 2 {
				key, value := entry.Content[j], entry.Content[j+1]
				loc.Fields[key.Value] = Position{Line: value.Line, Column: value.Column}
				if key.Value == "name" {
					loc.Name = value.Value
				}
			}
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
