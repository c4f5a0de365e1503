package sources

import (
	"io"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/internal/policy"
	"github.com/gopherjs/jssources/sourcemap"
)

// Prefix inserts a fixed text at the start of every line of its child. A final
// newline doesn't open a new line.
type Prefix struct {
	prefix string
	source Source
}

var _ Source = (*Prefix)(nil)

// NewPrefix returns source with prefix in front of every line.
func NewPrefix(prefix string, source Source) *Prefix {
	return &Prefix{prefix: policy.Intern(prefix), source: source}
}

// NewPrefixString is NewPrefix for a raw text.
func NewPrefixString(prefix, source string) *Prefix {
	return NewPrefix(prefix, NewRaw(source))
}

// Original returns the prefixed source.
func (p *Prefix) Original() Source { return p.source }

// Prefix returns the inserted text.
func (p *Prefix) Prefix() string { return p.prefix }

func (p *Prefix) prefixed(s string) string {
	trailing := strings.HasSuffix(s, "\n")
	if trailing {
		s = s[:len(s)-1]
	}
	s = p.prefix + strings.ReplaceAll(s, "\n", "\n"+p.prefix)
	if trailing {
		s += "\n"
	}
	return s
}

func (p *Prefix) Source() string { return p.prefixed(p.source.Source()) }

func (p *Prefix) Buffer() []byte { return []byte(p.Source()) }

func (p *Prefix) Size() int { return len(p.Source()) }

func (p *Prefix) Map(opts MapOptions) *sourcemap.Map { return GetMap(p, opts) }

func (p *Prefix) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	return GetSourceAndMap(p, opts)
}

func (p *Prefix) UpdateHash(h io.Writer) {
	writeHash(h, "PrefixSource")
	p.source.UpdateHash(h)
	writeHash(h, p.prefix)
}

func (p *Prefix) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	prefix := p.prefix
	prefixLen := len(prefix)
	linesOnly := opts.LinesOnly

	inner := *h
	inner.Chunk = func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
		switch {
		case generatedColumn != 0:
			generatedColumn += prefixLen
		case chunk != "":
			if linesOnly || sourceIndex < 0 {
				chunk = prefix + chunk
			} else if prefixLen > 0 {
				h.Chunk(prefix, generatedLine, generatedColumn, -1, -1, -1, -1)
				generatedColumn += prefixLen
			}
		case !linesOnly:
			generatedColumn += prefixLen
		}
		h.Chunk(chunk, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
	}
	if h.GeneratedRange != nil {
		inner.GeneratedRange = func(r sourcemap.GeneratedRange) {
			r.Column += prefixLen
			h.GeneratedRange(r)
		}
	}

	result := p.source.StreamChunks(opts, &inner)
	column := result.GeneratedColumn
	if column != 0 {
		column += prefixLen
	}
	out := StreamResult{GeneratedLine: result.GeneratedLine, GeneratedColumn: column}
	if result.Source.Valid {
		out.Source = null.StringFrom(p.prefixed(result.Source.String))
	}
	return out
}
