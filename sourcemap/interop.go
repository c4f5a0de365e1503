package sourcemap

import (
	"bytes"
	"fmt"

	gosourcemap "github.com/go-sourcemap/sourcemap"
	nsourcemap "github.com/neelance/sourcemap"
)

// FromNeelance converts a map built with github.com/neelance/sourcemap, the
// format written by the GopherJS compiler.
func FromNeelance(nm *nsourcemap.Map) (*Map, error) {
	var buf bytes.Buffer
	if err := nm.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode source map: %w", err)
	}
	return ReadFrom(&buf)
}

// Neelance converts the map into a github.com/neelance/sourcemap map. The
// extension fields and sources content are dropped.
func (m *Map) Neelance() *nsourcemap.Map {
	return &nsourcemap.Map{
		Version:    3,
		File:       m.File,
		SourceRoot: m.SourceRoot,
		Sources:    append([]string{}, m.Sources...),
		Names:      append([]string{}, m.Names...),
		Mappings:   m.Mappings,
	}
}

// Position is an original location resolved by a Consumer.
type Position struct {
	Source string
	Name   string
	Line   int
	Column int
}

// Consumer resolves generated positions to original ones.
type Consumer struct {
	c *gosourcemap.Consumer
}

// NewConsumer prepares m for lookups. mapURL is used to resolve relative
// source names and may be empty.
func NewConsumer(mapURL string, m *Map) (*Consumer, error) {
	data, err := m.JSON()
	if err != nil {
		return nil, err
	}
	c, err := gosourcemap.Parse(mapURL, data)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare source map lookup: %w", err)
	}
	return &Consumer{c: c}, nil
}

// Lookup returns the original position of the generated position
// line:column, 1-based line and 0-based column. The closest mapping at or
// before the column on the same line is used.
func (c *Consumer) Lookup(line, column int) (Position, bool) {
	source, name, origLine, origColumn, ok := c.c.Source(line, column)
	if !ok {
		return Position{}, false
	}
	return Position{Source: source, Name: name, Line: origLine, Column: origColumn}, true
}

// SourceContent returns the embedded content of a source as resolved by
// Lookup.
func (c *Consumer) SourceContent(source string) string {
	return c.c.SourceContent(source)
}
