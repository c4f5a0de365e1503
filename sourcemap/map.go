// Package sourcemap implements the Source Map V3 format: the JSON document,
// the VLQ encoded "mappings" field and the "originalScopes" and
// "generatedRanges" extensions.
package sourcemap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// ErrUnsupportedVersion is returned when decoding a map with a version other
// than 3.
var ErrUnsupportedVersion = errors.New("unsupported source map version")

// Map is a Source Map V3 document.
//
// Sources entries that are null in JSON are represented by an empty string.
// SourcesContent entries are nullable, an invalid null.String stands for a
// missing content.
type Map struct {
	Version         int           `json:"version"`
	File            string        `json:"file,omitempty"`
	SourceRoot      string        `json:"sourceRoot,omitempty"`
	Mappings        string        `json:"mappings"`
	Sources         []string      `json:"sources"`
	SourcesContent  []null.String `json:"sourcesContent,omitempty"`
	Names           []string      `json:"names"`
	OriginalScopes  []string      `json:"originalScopes,omitempty"`
	GeneratedRanges string        `json:"generatedRanges,omitempty"`
}

// Parse decodes a JSON encoded source map.
func Parse(data []byte) (*Map, error) {
	return ReadFrom(bytes.NewReader(data))
}

// ReadFrom decodes a JSON encoded source map from r.
func ReadFrom(r io.Reader) (*Map, error) {
	var m Map
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode source map: %w", err)
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	if m.Sources == nil {
		m.Sources = []string{}
	}
	if m.Names == nil {
		m.Names = []string{}
	}
	return &m, nil
}

// WriteTo writes the JSON encoding of the map to w.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	data, err := m.JSON()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// JSON returns the compact JSON encoding of the map.
func (m *Map) JSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode source map: %w", err)
	}
	return data, nil
}

// SourceName returns the name of the source with the given index with the
// source root applied.
func (m *Map) SourceName(i int) string {
	if i < 0 || i >= len(m.Sources) {
		return ""
	}
	source := m.Sources[i]
	if m.SourceRoot == "" {
		return source
	}
	if strings.HasSuffix(m.SourceRoot, "/") {
		return m.SourceRoot + source
	}
	return m.SourceRoot + "/" + source
}

// SourceContent returns the content of the source with the given index.
func (m *Map) SourceContent(i int) null.String {
	if i < 0 || i >= len(m.SourcesContent) {
		return null.String{}
	}
	return m.SourcesContent[i]
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	c := *m
	c.Sources = cloneSlice(m.Sources)
	c.SourcesContent = cloneSlice(m.SourcesContent)
	c.Names = cloneSlice(m.Names)
	c.OriginalScopes = cloneSlice(m.OriginalScopes)
	return &c
}

// cloneSlice copies s, keeping nil and empty slices apart so that the copy
// encodes to the same JSON.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
