package sources

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/guregu/null.v3"
)

func TestOriginal(t *testing.T) {
	withPolicies(t, func(t *testing.T) {
		t.Run("multiline string", func(t *testing.T) {
			s := NewOriginal("Line1\n\nLine3\n", "file.js")
			text, m := s.SourceAndMap(columnsOpts)
			linesText, linesMap := s.SourceAndMap(linesOpts)
			if text != "Line1\n\nLine3\n" || linesText != text {
				t.Errorf("Got: texts %q and %q. Want: %q.", text, linesText, "Line1\n\nLine3\n")
			}
			if diff := cmp.Diff([]string{"file.js"}, m.Sources); diff != "" {
				t.Errorf("Sources returned diff (-want,+got):\n%s", diff)
			}
			if diff := cmp.Diff([]null.String{null.StringFrom("Line1\n\nLine3\n")}, m.SourcesContent); diff != "" {
				t.Errorf("SourcesContent returned diff (-want,+got):\n%s", diff)
			}
			if got, want := m.Mappings, "AAAA;;AAEA"; got != want {
				t.Errorf("Got: columns mappings %q. Want: %q.", got, want)
			}
			if got, want := linesMap.Mappings, "AAAA;AACA;AACA"; got != want {
				t.Errorf("Got: lines mappings %q. Want: %q.", got, want)
			}
			if linesMap.File != m.File || linesMap.Version != m.Version {
				t.Errorf("Got: file/version %q/%d and %q/%d. Want: equal.", linesMap.File, linesMap.Version, m.File, m.Version)
			}
			checkConsistency(t, s)
		})

		t.Run("empty string", func(t *testing.T) {
			s := NewOriginal("", "file.js")
			for _, opts := range []MapOptions{columnsOpts, linesOpts} {
				text, m := s.SourceAndMap(opts)
				if text != "" || m != nil {
					t.Errorf("Got: SourceAndMap(%s) = %q, %+v. Want: empty text and nil map.", opts.Key(), text, m)
				}
			}
		})

		t.Run("binary size", func(t *testing.T) {
			s := NewOriginalBuffer(make([]byte, 256), "file.wasm")
			if got := s.Size(); got != 256 {
				t.Errorf("Got: Size() = %d. Want: 256.", got)
			}
		})

		t.Run("unicode size", func(t *testing.T) {
			if got := NewOriginal("😋", "file.js").Size(); got != 4 {
				t.Errorf("Got: Size() = %d. Want: 4.", got)
			}
		})

		t.Run("statements", func(t *testing.T) {
			input := "if (hello()) { world(); hi(); there(); } done();\n" +
				"if (hello()) { world(); hi(); there(); } done();"
			s := NewOriginal(input, "file.js")
			if got, want := mappingsOf(s.Map(columnsOpts)), "AAAA,eAAe,SAAS,MAAM,WAAW;AACzC,eAAe,SAAS,MAAM,WAAW"; got != want {
				t.Errorf("Got: columns mappings %q. Want: %q.", got, want)
			}
			if got, want := mappingsOf(s.Map(linesOpts)), "AAAA;AACA"; got != want {
				t.Errorf("Got: lines mappings %q. Want: %q.", got, want)
			}
			checkConsistency(t, s)
		})
	})
}

func TestOriginalStreamChunks(t *testing.T) {
	s := NewOriginal("a;\n\nb", "file.js")

	t.Run("columns", func(t *testing.T) {
		chunks, sources, _, result := collect(s, StreamOptions{})
		want := []chunk{
			{"a;\n", 1, 0, 0, 1, 0, -1},
			{"\n", 2, 0, -1, -1, -1, -1},
			{"b", 3, 0, 0, 3, 0, -1},
		}
		if diff := cmp.Diff(want, chunks); diff != "" {
			t.Errorf("StreamChunks() returned diff (-want,+got):\n%s", diff)
		}
		if diff := cmp.Diff(map[int]string{0: "file.js"}, sources); diff != "" {
			t.Errorf("StreamChunks() reported sources diff (-want,+got):\n%s", diff)
		}
		if result.GeneratedLine != 3 || result.GeneratedColumn != 1 {
			t.Errorf("Got: end %d:%d. Want: 3:1.", result.GeneratedLine, result.GeneratedColumn)
		}
	})

	t.Run("final columns", func(t *testing.T) {
		chunks, _, _, result := collect(s, StreamOptions{FinalSource: true})
		want := []chunk{
			{"", 1, 0, 0, 1, 0, -1},
			{"", 3, 0, 0, 3, 0, -1},
		}
		if diff := cmp.Diff(want, chunks); diff != "" {
			t.Errorf("StreamChunks() returned diff (-want,+got):\n%s", diff)
		}
		if result.Source.String != "a;\n\nb" {
			t.Errorf("Got: result source %q. Want: the whole text.", result.Source.String)
		}
	})

	t.Run("final lines", func(t *testing.T) {
		chunks, _, _, _ := collect(s, StreamOptions{MapOptions: linesOpts, FinalSource: true})
		want := []chunk{
			{"", 1, 0, 0, 1, 0, -1},
			{"", 2, 0, 0, 2, 0, -1},
			{"", 3, 0, 0, 3, 0, -1},
		}
		if diff := cmp.Diff(want, chunks); diff != "" {
			t.Errorf("StreamChunks() returned diff (-want,+got):\n%s", diff)
		}
	})
}

func TestOriginalHash(t *testing.T) {
	a := hashOf(NewOriginal("abc", "a.js"))
	if a != hashOf(NewOriginalBuffer([]byte("abc"), "a.js")) {
		t.Errorf("Got: different hashes for the string and buffer forms. Want: equal.")
	}
	if a == hashOf(NewOriginal("abc", "b.js")) {
		t.Errorf("Got: equal hashes for different names. Want: different.")
	}
}
