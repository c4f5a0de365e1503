package sources

import (
	"io"

	"github.com/gopherjs/jssources/internal/policy"
	"github.com/gopherjs/jssources/sourcemap"
)

// Raw is a text without provenance. It never has a map.
type Raw struct {
	value     string
	hasValue  bool
	buffer    []byte
	isBuffer  bool
	fromMerge bool // created for a string added to a Concat
}

var _ Source = (*Raw)(nil)

// NewRaw returns a Raw source for value.
func NewRaw(value string) *Raw {
	return &Raw{value: policy.Intern(value), hasValue: true}
}

// NewRawBuffer returns a Raw source holding b. The slice is kept as is and
// must not be modified afterwards.
func NewRawBuffer(b []byte) *Raw {
	if b == nil {
		b = []byte{}
	}
	return &Raw{buffer: b, isBuffer: true}
}

func newStringRaw(value string) *Raw {
	r := NewRaw(value)
	r.fromMerge = true
	return r
}

// IsBuffer reports whether the source was created from bytes.
func (r *Raw) IsBuffer() bool { return r.isBuffer }

func (r *Raw) Source() string {
	if r.hasValue {
		return r.value
	}
	value := string(r.buffer)
	if policy.DualBufferCaching() {
		r.value, r.hasValue = value, true
	}
	return value
}

func (r *Raw) Buffer() []byte {
	if r.buffer != nil {
		return r.buffer
	}
	b := []byte(r.value)
	if policy.DualBufferCaching() {
		r.buffer = b
	}
	return b
}

func (r *Raw) Size() int {
	if r.hasValue {
		return len(r.value)
	}
	return len(r.buffer)
}

func (r *Raw) Map(MapOptions) *sourcemap.Map { return nil }

func (r *Raw) SourceAndMap(MapOptions) (string, *sourcemap.Map) { return r.Source(), nil }

func (r *Raw) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	return streamChunksOfRawSource(r.Source(), h, opts.FinalSource)
}

func (r *Raw) UpdateHash(h io.Writer) {
	writeHash(h, "RawSource")
	h.Write(r.Buffer())
}
