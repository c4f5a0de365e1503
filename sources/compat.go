package sources

import (
	"io"

	"github.com/gopherjs/jssources/sourcemap"
)

// Compat adapts a SourceLike to the full Source interface.
//
// Missing capabilities are derived from Source and SourceAndMap. Buffer and
// UpdateHash of the wrapped value are used when it has them.
type Compat struct {
	like   SourceLike
	hasher interface{ UpdateHash(io.Writer) }
	buffer interface{ Buffer() []byte }
}

var _ Source = (*Compat)(nil)

// NewCompat wraps like. Values that already implement Source are returned
// unchanged.
func NewCompat(like SourceLike) Source {
	if s, ok := like.(Source); ok {
		return s
	}
	c := &Compat{like: like}
	c.hasher, _ = like.(interface{ UpdateHash(io.Writer) })
	c.buffer, _ = like.(interface{ Buffer() []byte })
	return c
}

func (c *Compat) Source() string { return c.like.Source() }

func (c *Compat) Size() int { return c.like.Size() }

func (c *Compat) Map(opts MapOptions) *sourcemap.Map { return c.like.Map(opts) }

func (c *Compat) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	return c.like.SourceAndMap(opts)
}

func (c *Compat) Buffer() []byte {
	if c.buffer != nil {
		return c.buffer.Buffer()
	}
	return []byte(c.like.Source())
}

func (c *Compat) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	text, m := c.like.SourceAndMap(opts.MapOptions)
	return streamChunksOfSourceMap(text, m, h, opts.FinalSource)
}

func (c *Compat) UpdateHash(h io.Writer) {
	if c.hasher != nil {
		c.hasher.UpdateHash(h)
		return
	}
	h.Write(c.Buffer())
}
