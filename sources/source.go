// Package sources composes texts while keeping track of where every byte of
// the result came from.
//
// A Source produces a text, optionally with a Source Map V3 describing it.
// Leaf sources (Raw, Original, SourceMapSource) wrap literal texts, composite
// sources (Concat, Prefix, Replace) transform other sources, and Cached
// memoizes any of them. All sources share a push based streaming protocol
// (StreamChunks) which lets composites translate positions without building
// intermediate maps.
//
// Lines are 1-based, columns and sizes are 0-based byte offsets.
package sources

import (
	"errors"
	"io"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sourcemap"
)

// ErrContentUnavailable is the panic value (wrapped) of sources that don't
// keep their content.
var ErrContentUnavailable = errors.New("content and map of this source are not available")

// MapOptions selects the granularity of generated maps.
type MapOptions struct {
	// LinesOnly limits maps to one mapping per generated line.
	LinesOnly bool
}

// Key returns the normalized signature of the options, used to cache maps.
func (o MapOptions) Key() string {
	if o.LinesOnly {
		return `{"columns":false}`
	}
	return "{}"
}

// StreamOptions controls a StreamChunks call.
type StreamOptions struct {
	MapOptions
	// FinalSource allows implementations to omit chunk texts and to report
	// the complete text through StreamResult.Source instead.
	FinalSource bool
}

// StreamResult is returned by StreamChunks.
type StreamResult struct {
	// GeneratedLine and GeneratedColumn point right after the last
	// character of the generated text.
	GeneratedLine   int
	GeneratedColumn int
	// Source is the generated text. It may only be set in FinalSource mode.
	Source null.String
}

// Handlers receive the output of StreamChunks.
//
// Chunk is called for every piece of generated text in increasing position
// order. chunk is empty when the text is omitted in FinalSource mode. A
// negative sourceIndex marks generated code without an original position,
// originalLine, originalColumn and nameIndex are -1 then.
//
// Source and Name are called once per distinct source and name before their
// index is used, with dense indices in first-use order.
//
// Chunk, Source and Name must be set. OriginalScope and GeneratedRange may be
// nil.
type Handlers struct {
	Chunk          func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int)
	Source         func(sourceIndex int, source string, content null.String)
	Name           func(nameIndex int, name string)
	OriginalScope  func(scope sourcemap.OriginalScope)
	GeneratedRange func(r sourcemap.GeneratedRange)
}

func (h *Handlers) originalScope(scope sourcemap.OriginalScope) {
	if h.OriginalScope != nil {
		h.OriginalScope(scope)
	}
}

func (h *Handlers) generatedRange(r sourcemap.GeneratedRange) {
	if h.GeneratedRange != nil {
		h.GeneratedRange(r)
	}
}

func noopSource(int, string, null.String) {}
func noopName(int, string)                {}

// SourceLike is the minimal surface of a text with an optional map. Values
// that implement only SourceLike take part in compositions through NewCompat.
type SourceLike interface {
	// Source returns the generated text.
	Source() string
	// Size returns the length of the generated text in bytes.
	Size() int
	// Map returns the source map of the text, nil when the text has no
	// provenance.
	Map(opts MapOptions) *sourcemap.Map
	// SourceAndMap returns Source() and Map(opts) together.
	SourceAndMap(opts MapOptions) (string, *sourcemap.Map)
}

// Source is the full capability set implemented by every source kind.
type Source interface {
	SourceLike
	// Buffer returns the generated text as bytes. Callers must not modify
	// the result.
	Buffer() []byte
	// UpdateHash writes a representation of the source identity to h.
	UpdateHash(h io.Writer)
	// StreamChunks pushes the generated text and its mappings to h.
	StreamChunks(opts StreamOptions, h *Handlers) StreamResult
}

func writeHash(h io.Writer, s string) {
	io.WriteString(h, s)
}
