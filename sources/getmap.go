package sources

import (
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sourcemap"
)

// mapBuilder accumulates the output of StreamChunks into a source map.
type mapBuilder struct {
	mappings *sourcemap.MappingsSerializer
	sources  []string
	contents []null.String
	names    []string
	scopes   []sourcemap.OriginalScopesSerializer
	hasScope bool
	ranges   sourcemap.GeneratedRangesSerializer
}

func newMapBuilder(opts MapOptions) *mapBuilder {
	return &mapBuilder{mappings: sourcemap.NewMappingsSerializer(opts.LinesOnly)}
}

func (b *mapBuilder) chunk(_ string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
	b.mappings.Add(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
}

func (b *mapBuilder) source(i int, name string, content null.String) {
	for len(b.sources) <= i {
		b.sources = append(b.sources, "")
	}
	b.sources[i] = name
	b.growScopes(i)
	if content.Valid {
		for len(b.contents) <= i {
			b.contents = append(b.contents, null.String{})
		}
		b.contents[i] = content
	}
}

func (b *mapBuilder) name(i int, name string) {
	for len(b.names) <= i {
		b.names = append(b.names, "")
	}
	b.names[i] = name
}

func (b *mapBuilder) growScopes(i int) {
	for len(b.scopes) <= i {
		b.scopes = append(b.scopes, sourcemap.OriginalScopesSerializer{})
	}
}

func (b *mapBuilder) originalScope(scope sourcemap.OriginalScope) {
	if scope.SourceIndex < 0 {
		return
	}
	b.growScopes(scope.SourceIndex)
	b.scopes[scope.SourceIndex].Add(scope)
	b.hasScope = true
}

func (b *mapBuilder) generatedRange(r sourcemap.GeneratedRange) {
	b.ranges.Add(r)
}

// handlers returns Handlers feeding b. Chunk texts are appended to code when
// it is not nil.
func (b *mapBuilder) handlers(code *strings.Builder) *Handlers {
	h := &Handlers{
		Chunk:          b.chunk,
		Source:         b.source,
		Name:           b.name,
		OriginalScope:  b.originalScope,
		GeneratedRange: b.generatedRange,
	}
	if code != nil {
		h.Chunk = func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
			code.WriteString(chunk)
			b.mappings.Add(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
		}
	}
	return h
}

// build returns the accumulated map, or nil when nothing was mapped.
func (b *mapBuilder) build() *sourcemap.Map {
	mappings := b.mappings.String()
	if mappings == "" && !b.hasScope && b.ranges.Len() == 0 {
		return nil
	}
	m := &sourcemap.Map{
		Version:         3,
		File:            "x",
		Mappings:        mappings,
		Sources:         b.sources,
		Names:           b.names,
		GeneratedRanges: b.ranges.String(),
	}
	if m.Sources == nil {
		m.Sources = []string{}
	}
	if m.Names == nil {
		m.Names = []string{}
	}
	if len(b.contents) > 0 {
		m.SourcesContent = b.contents
	}
	if b.hasScope {
		m.OriginalScopes = make([]string, len(b.scopes))
		for i := range b.scopes {
			m.OriginalScopes[i] = b.scopes[i].String()
		}
	}
	return m
}

// GetMap computes the map of s from its chunk stream.
func GetMap(s Source, opts MapOptions) *sourcemap.Map {
	b := newMapBuilder(opts)
	s.StreamChunks(StreamOptions{MapOptions: opts, FinalSource: true}, b.handlers(nil))
	return b.build()
}

// GetSourceAndMap computes the text and the map of s in a single stream.
func GetSourceAndMap(s Source, opts MapOptions) (string, *sourcemap.Map) {
	b := newMapBuilder(opts)
	var code strings.Builder
	result := s.StreamChunks(StreamOptions{MapOptions: opts, FinalSource: true}, b.handlers(&code))
	if result.Source.Valid {
		return result.Source.String, b.build()
	}
	return code.String(), b.build()
}

// streamAndGetSourceAndMap streams s to h and captures its text and map at the
// same time.
func streamAndGetSourceAndMap(s Source, opts StreamOptions, h *Handlers) (StreamResult, string, *sourcemap.Map) {
	b := newMapBuilder(opts.MapOptions)
	var code strings.Builder
	tee := &Handlers{
		Chunk: func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
			code.WriteString(chunk)
			b.mappings.Add(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
			h.Chunk(chunk, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
		},
		Source: func(i int, name string, content null.String) {
			b.source(i, name, content)
			h.Source(i, name, content)
		},
		Name: func(i int, name string) {
			b.name(i, name)
			h.Name(i, name)
		},
		OriginalScope: func(scope sourcemap.OriginalScope) {
			b.originalScope(scope)
			h.originalScope(scope)
		},
		GeneratedRange: func(r sourcemap.GeneratedRange) {
			b.generatedRange(r)
			h.generatedRange(r)
		},
	}
	result := s.StreamChunks(opts, tee)
	var source string
	switch {
	case result.Source.Valid:
		source = result.Source.String
	case opts.FinalSource:
		source = s.Source()
	default:
		source = code.String()
	}
	return result, source, b.build()
}
