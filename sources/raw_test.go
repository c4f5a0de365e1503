package sources

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRaw(t *testing.T) {
	withPolicies(t, func(t *testing.T) {
		t.Run("string", func(t *testing.T) {
			s := NewRaw("Hello\nWorld\n")
			if got, want := s.Source(), "Hello\nWorld\n"; got != want {
				t.Errorf("Got: %q. Want: %q.", got, want)
			}
			if s.IsBuffer() {
				t.Errorf("Got: IsBuffer() = true. Want: false.")
			}
			if m := s.Map(columnsOpts); m != nil {
				t.Errorf("Got: map %+v. Want: nil.", m)
			}
			checkConsistency(t, s)
		})

		t.Run("buffer", func(t *testing.T) {
			s := NewRawBuffer([]byte("Hello\nWorld"))
			if !s.IsBuffer() {
				t.Errorf("Got: IsBuffer() = false. Want: true.")
			}
			if got, want := s.Size(), 11; got != want {
				t.Errorf("Got: Size() = %d. Want: %d.", got, want)
			}
			checkConsistency(t, s)
		})

		t.Run("nil buffer", func(t *testing.T) {
			s := NewRawBuffer(nil)
			if got := s.Source(); got != "" {
				t.Errorf("Got: %q. Want: empty text.", got)
			}
		})
	})
}

func TestRawStreamChunks(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantChunks []chunk
		wantLine   int
		wantColumn int
	}{{
		name:       "empty",
		value:      "",
		wantLine:   1,
		wantColumn: 0,
	}, {
		name:  "trailing newline",
		value: "a\nbc\n",
		wantChunks: []chunk{
			{"a\n", 1, 0, -1, -1, -1, -1},
			{"bc\n", 2, 0, -1, -1, -1, -1},
		},
		wantLine:   3,
		wantColumn: 0,
	}, {
		name:  "unterminated last line",
		value: "a\nbc",
		wantChunks: []chunk{
			{"a\n", 1, 0, -1, -1, -1, -1},
			{"bc", 2, 0, -1, -1, -1, -1},
		},
		wantLine:   2,
		wantColumn: 2,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			chunks, _, _, result := collect(NewRaw(test.value), StreamOptions{})
			if diff := cmp.Diff(test.wantChunks, chunks); diff != "" {
				t.Errorf("StreamChunks() returned diff (-want,+got):\n%s", diff)
			}
			if result.GeneratedLine != test.wantLine || result.GeneratedColumn != test.wantColumn {
				t.Errorf("Got: end %d:%d. Want: %d:%d.", result.GeneratedLine, result.GeneratedColumn, test.wantLine, test.wantColumn)
			}
		})
	}

	t.Run("final source", func(t *testing.T) {
		chunks, _, _, result := collect(NewRaw("a\nbc"), StreamOptions{FinalSource: true})
		if len(chunks) != 0 {
			t.Errorf("Got: %d chunks. Want: none.", len(chunks))
		}
		if !result.Source.Valid || result.Source.String != "a\nbc" {
			t.Errorf("Got: result source %v. Want: %q.", result.Source, "a\nbc")
		}
	})
}

func TestRawHash(t *testing.T) {
	if hashOf(NewRaw("abc")) != hashOf(NewRawBuffer([]byte("abc"))) {
		t.Errorf("Got: different hashes for the string and buffer forms of the same text. Want: equal.")
	}
	if hashOf(NewRaw("abc")) == hashOf(NewOriginal("abc", "")) {
		t.Errorf("Got: a raw and an original source with the same text hash equal. Want: different.")
	}
}
