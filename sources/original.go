package sources

import (
	"io"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/internal/lines"
	"github.com/gopherjs/jssources/internal/policy"
	"github.com/gopherjs/jssources/sourcemap"
)

// Original is a hand written text which maps onto itself under a name.
//
// With column mappings the text is split into statement-sized tokens, each
// one mapped to its own position. Line mappings map every line to column 0.
type Original struct {
	value    string
	hasValue bool
	buffer   []byte
	name     string
}

var _ Source = (*Original)(nil)

// NewOriginal returns a source for value, reported as name in maps.
func NewOriginal(value, name string) *Original {
	return &Original{value: policy.Intern(value), hasValue: true, name: policy.Intern(name)}
}

// NewOriginalBuffer is like NewOriginal for a text held as bytes.
func NewOriginalBuffer(b []byte, name string) *Original {
	if b == nil {
		b = []byte{}
	}
	return &Original{buffer: b, name: policy.Intern(name)}
}

// Name returns the name the text is reported under.
func (o *Original) Name() string { return o.name }

func (o *Original) Source() string {
	if o.hasValue {
		return o.value
	}
	value := string(o.buffer)
	if policy.DualBufferCaching() {
		o.value, o.hasValue = value, true
	}
	return value
}

func (o *Original) Buffer() []byte {
	if o.buffer != nil {
		return o.buffer
	}
	b := []byte(o.value)
	if policy.DualBufferCaching() {
		o.buffer = b
	}
	return b
}

func (o *Original) Size() int {
	if o.hasValue {
		return len(o.value)
	}
	return len(o.buffer)
}

func (o *Original) Map(opts MapOptions) *sourcemap.Map { return GetMap(o, opts) }

func (o *Original) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	return GetSourceAndMap(o, opts)
}

func (o *Original) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	value := o.Source()
	h.Source(0, o.name, null.StringFrom(value))

	switch {
	case !opts.LinesOnly:
		line, column := 1, 0
		for _, token := range lines.Tokens(value) {
			endOfLine := strings.HasSuffix(token, "\n")
			if endOfLine && len(token) == 1 {
				if !opts.FinalSource {
					h.Chunk(token, line, column, -1, -1, -1, -1)
				}
			} else {
				chunk := token
				if opts.FinalSource {
					chunk = ""
				}
				h.Chunk(chunk, line, column, 0, line, column, -1)
			}
			if endOfLine {
				line++
				column = 0
			} else {
				column += len(token)
			}
		}
		result := StreamResult{GeneratedLine: line, GeneratedColumn: column}
		if opts.FinalSource {
			result.Source = null.StringFrom(value)
		}
		return result

	case opts.FinalSource:
		result := generatedInfo(value)
		last := result.GeneratedLine
		if result.GeneratedColumn == 0 {
			last--
		}
		for line := 1; line <= last; line++ {
			h.Chunk("", line, 0, 0, line, 0, -1)
		}
		return result

	default:
		line := 1
		var last string
		for _, l := range lines.Split(value) {
			h.Chunk(l, line, 0, 0, line, 0, -1)
			line++
			last = l
		}
		if last == "" || strings.HasSuffix(last, "\n") {
			return StreamResult{GeneratedLine: line, GeneratedColumn: 0}
		}
		return StreamResult{GeneratedLine: line - 1, GeneratedColumn: len(last)}
	}
}

func (o *Original) UpdateHash(h io.Writer) {
	writeHash(h, "OriginalSource")
	h.Write(o.Buffer())
	writeHash(h, o.name)
}
