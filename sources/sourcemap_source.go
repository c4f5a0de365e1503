package sources

import (
	"io"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/internal/policy"
	"github.com/gopherjs/jssources/sourcemap"
)

// Inner describes an earlier transformation of one of the sources of a
// SourceMapSource map. Its mappings are composed with the outer ones.
type Inner struct {
	// Source is the text Map describes. Defaults to the content the outer
	// map carries for the source.
	Source null.String
	// Map translates positions in Source to the original sources.
	Map *sourcemap.Map
	// RemoveSource drops the intermediate text from the result. Positions
	// that Map can't translate become unmapped.
	RemoveSource bool
}

// SourceMapSource is a generated text together with the source map produced
// by the tool that generated it.
type SourceMapSource struct {
	value     string
	hasValue  bool
	buffer    []byte
	name      string
	sourceMap *sourcemap.Map
	inner     *Inner

	mapJSON   []byte
	innerJSON []byte
}

var _ Source = (*SourceMapSource)(nil)

// NewSourceMapSource returns a source for value described by m. name is the
// name of value in the sources of m, used to compose inner maps.
func NewSourceMapSource(value, name string, m *sourcemap.Map) *SourceMapSource {
	return &SourceMapSource{value: policy.Intern(value), hasValue: true, name: policy.Intern(name), sourceMap: m}
}

// NewSourceMapSourceBuffer is NewSourceMapSource for a text held as bytes.
func NewSourceMapSourceBuffer(b []byte, name string, m *sourcemap.Map) *SourceMapSource {
	if b == nil {
		b = []byte{}
	}
	return &SourceMapSource{buffer: b, name: policy.Intern(name), sourceMap: m}
}

// NewComposedSource returns a source for value described by m, where the
// mappings into the source called name are translated through inner.
func NewComposedSource(value, name string, m *sourcemap.Map, inner Inner) *SourceMapSource {
	s := NewSourceMapSource(value, name, m)
	if inner.Map != nil {
		s.inner = &inner
	}
	return s
}

func (s *SourceMapSource) Source() string {
	if s.hasValue {
		return s.value
	}
	value := string(s.buffer)
	if policy.DualBufferCaching() {
		s.value, s.hasValue = value, true
	}
	return value
}

func (s *SourceMapSource) Buffer() []byte {
	if s.buffer != nil {
		return s.buffer
	}
	b := []byte(s.value)
	if policy.DualBufferCaching() {
		s.buffer = b
	}
	return b
}

func (s *SourceMapSource) Size() int {
	if s.hasValue {
		return len(s.value)
	}
	return len(s.buffer)
}

// Map returns a copy of the map given to the constructor unless an inner map
// has to be composed. Callers may modify the result.
func (s *SourceMapSource) Map(opts MapOptions) *sourcemap.Map {
	if s.inner == nil {
		return s.sourceMap.Clone()
	}
	return GetMap(s, opts)
}

func (s *SourceMapSource) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	if s.inner == nil {
		return s.Source(), s.sourceMap.Clone()
	}
	return GetSourceAndMap(s, opts)
}

func (s *SourceMapSource) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	if s.sourceMap == nil {
		return streamChunksOfRawSource(s.Source(), h, opts.FinalSource)
	}
	if s.inner != nil {
		return streamChunksOfCombinedSourceMap(s.Source(), s.sourceMap, s.name, s.inner.Source, s.inner.Map, s.inner.RemoveSource, h, opts.FinalSource)
	}
	return streamChunksOfSourceMap(s.Source(), s.sourceMap, h, opts.FinalSource)
}

func encodeMap(m *sourcemap.Map) []byte {
	if m == nil {
		return []byte("null")
	}
	b, err := m.JSON()
	if err != nil {
		// A Map only holds strings, ints and slices of them.
		panic(err)
	}
	return b
}

func (s *SourceMapSource) UpdateHash(h io.Writer) {
	if s.mapJSON == nil {
		s.mapJSON = encodeMap(s.sourceMap)
	}
	writeHash(h, "SourceMapSource")
	h.Write(s.Buffer())
	h.Write(s.mapJSON)
	if s.inner != nil {
		if s.inner.Source.Valid {
			writeHash(h, s.inner.Source.String)
		}
		if s.innerJSON == nil {
			s.innerJSON = encodeMap(s.inner.Map)
		}
		h.Write(s.innerJSON)
		if s.inner.RemoveSource {
			writeHash(h, "true")
			return
		}
	}
	writeHash(h, "false")
}
