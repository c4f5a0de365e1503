package sources

import (
	"fmt"
	"io"

	"github.com/gopherjs/jssources/sourcemap"
)

// SizeOnly stands in for a source of which only the size is known. All
// requests but Size panic with an error wrapping ErrContentUnavailable.
type SizeOnly struct {
	size int
}

var _ Source = (*SizeOnly)(nil)

// NewSizeOnly returns a SizeOnly of the given size.
func NewSizeOnly(size int) *SizeOnly { return &SizeOnly{size: size} }

func (s *SizeOnly) unavailable() error {
	return fmt.Errorf("%w (only Size() is supported)", ErrContentUnavailable)
}

func (s *SizeOnly) Size() int { return s.size }

func (s *SizeOnly) Source() string { panic(s.unavailable()) }

func (s *SizeOnly) Buffer() []byte { panic(s.unavailable()) }

func (s *SizeOnly) Map(MapOptions) *sourcemap.Map { panic(s.unavailable()) }

func (s *SizeOnly) SourceAndMap(MapOptions) (string, *sourcemap.Map) { panic(s.unavailable()) }

func (s *SizeOnly) StreamChunks(StreamOptions, *Handlers) StreamResult { panic(s.unavailable()) }

func (s *SizeOnly) UpdateHash(io.Writer) { panic(s.unavailable()) }
