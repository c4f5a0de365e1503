package sources

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sourcemap"
)

var (
	columnsOpts = MapOptions{}
	linesOpts   = MapOptions{LinesOnly: true}
)

// withPolicies runs f once with the default policies and once with dual
// caching disabled and interning enabled.
func withPolicies(t *testing.T, f func(t *testing.T)) {
	t.Helper()
	t.Run("default policies", f)
	t.Run("memory optimizations", func(t *testing.T) {
		DisableDualStringBufferCaching()
		EnableStringInterning()
		defer func() {
			EnableDualStringBufferCaching()
			DisableStringInterning()
		}()
		f(t)
	})
}

// mappingsOf returns the mappings string of m, or "" for a nil map.
func mappingsOf(m *sourcemap.Map) string {
	if m == nil {
		return ""
	}
	return m.Mappings
}

func hashOf(s Source) string {
	h := sha256.New()
	s.UpdateHash(h)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type chunk struct {
	Text                         string
	GeneratedLine, GeneratedCol  int
	SourceIndex                  int
	OriginalLine, OriginalColumn int
	NameIndex                    int
}

// collect streams s and records everything it reports.
func collect(s Source, opts StreamOptions) (chunks []chunk, sources map[int]string, names map[int]string, result StreamResult) {
	sources = map[int]string{}
	names = map[int]string{}
	result = s.StreamChunks(opts, &Handlers{
		Chunk: func(text string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
			chunks = append(chunks, chunk{text, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex})
		},
		Source: func(i int, name string, _ null.String) { sources[i] = name },
		Name:   func(i int, name string) { names[i] = name },
	})
	return chunks, sources, names, result
}

// checkConsistency verifies that all the ways of reading s agree with each
// other.
func checkConsistency(t *testing.T, s Source) {
	t.Helper()
	text := s.Source()
	if got := s.Size(); got != len(text) {
		t.Errorf("Got: Size() = %d. Want: %d.", got, len(text))
	}
	if got := string(s.Buffer()); got != text {
		t.Errorf("Got: Buffer() = %q. Want: %q.", got, text)
	}
	for _, opts := range []MapOptions{columnsOpts, linesOpts} {
		gotText, gotMap := s.SourceAndMap(opts)
		if gotText != text {
			t.Errorf("Got: SourceAndMap(%s) text = %q. Want: %q.", opts.Key(), gotText, text)
		}
		if diff := cmp.Diff(s.Map(opts), gotMap); diff != "" {
			t.Errorf("SourceAndMap(%s) returned a map different from Map() (-want,+got):\n%s", opts.Key(), diff)
		}

		// Streaming without final source must reproduce the text chunk by
		// chunk, at the positions the chunks claim.
		chunks, _, _, result := collect(s, StreamOptions{MapOptions: opts})
		var b strings.Builder
		line, column := 1, 0
		for _, c := range chunks {
			if c.GeneratedLine != line || c.GeneratedCol != column {
				t.Fatalf("Got: chunk %q at %d:%d. Want: at %d:%d.", c.Text, c.GeneratedLine, c.GeneratedCol, line, column)
			}
			b.WriteString(c.Text)
			line += strings.Count(c.Text, "\n")
			if i := strings.LastIndexByte(c.Text, '\n'); i >= 0 {
				column = len(c.Text) - i - 1
			} else {
				column += len(c.Text)
			}
		}
		if got := b.String(); got != text {
			t.Errorf("Got: streamed text (%s) = %q. Want: %q.", opts.Key(), got, text)
		}
		if result.GeneratedLine != line || result.GeneratedColumn != column {
			t.Errorf("Got: stream end (%s) = %d:%d. Want: %d:%d.", opts.Key(), result.GeneratedLine, result.GeneratedColumn, line, column)
		}

		// The map of a final source stream equals the map of a full stream.
		full := newMapBuilder(opts)
		s.StreamChunks(StreamOptions{MapOptions: opts}, full.handlers(nil))
		if diff := cmp.Diff(full.build(), GetMap(s, opts)); diff != "" {
			t.Errorf("GetMap(%s) differs from the map of a full stream (-want,+got):\n%s", opts.Key(), diff)
		}
	}
}
