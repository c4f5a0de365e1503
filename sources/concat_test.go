package sources

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sourcemap"
)

const consoleJS = "console.log('test');\nconsole.log('test2');\n"

func TestConcat(t *testing.T) {
	withPolicies(t, func(t *testing.T) {
		t.Run("two sources", func(t *testing.T) {
			s := NewConcat(NewRaw("Hello World\n"), NewOriginal(consoleJS, "console.js"))
			s.Add(NewOriginal("Hello2\n", "hello.md"))

			wantText := "Hello World\nconsole.log('test');\nconsole.log('test2');\nHello2\n"
			wantMap := &sourcemap.Map{
				Version:  3,
				File:     "x",
				Mappings: ";AAAA;AACA;ACDA",
				Sources:  []string{"console.js", "hello.md"},
				SourcesContent: []null.String{
					null.StringFrom(consoleJS),
					null.StringFrom("Hello2\n"),
				},
				Names: []string{},
			}
			if got := s.Size(); got != 62 {
				t.Errorf("Got: Size() = %d. Want: 62.", got)
			}
			for _, opts := range []MapOptions{columnsOpts, linesOpts} {
				text, m := s.SourceAndMap(opts)
				if text != wantText {
					t.Errorf("Got: %q. Want: %q.", text, wantText)
				}
				if diff := cmp.Diff(wantMap, m); diff != "" {
					t.Errorf("SourceAndMap(%s) returned diff (-want,+got):\n%s", opts.Key(), diff)
				}
			}
			checkConsistency(t, s)
		})

		t.Run("strings", func(t *testing.T) {
			s := NewConcat(NewRaw("Hello World\n"), NewOriginal(consoleJS, "console.js"))
			inner := NewConcat()
			inner.AddString("(")
			inner.AddString("'string'")
			inner.AddString(")")
			inner.Buffer()
			s.AddString("console")
			s.AddString(".")
			s.AddString("log")
			s.Add(inner)

			wantText := "Hello World\nconsole.log('test');\nconsole.log('test2');\nconsole.log('string')"
			if got := s.Size(); got != 76 {
				t.Errorf("Got: Size() = %d. Want: 76.", got)
			}
			if got := string(s.Buffer()); got != wantText {
				t.Errorf("Got: %q. Want: %q.", got, wantText)
			}
			if got, want := mappingsOf(s.Map(linesOpts)), ";AAAA;AACA"; got != want {
				t.Errorf("Got: mappings %q. Want: %q.", got, want)
			}
			if got := len(s.Children()); got != 3 {
				t.Errorf("Got: %d children. Want: 3 after merging the strings.", got)
			}

			const wantHash = "183e6e9393eddb8480334aebeebb3366d6cce0124bc429c6e9246cc216167cb2"
			if got := hashOf(s); got != wantHash {
				t.Errorf("Got: hash %s. Want: %s.", got, wantHash)
			}

			other := NewConcat()
			other.AddString("Hello World\n")
			other.Add(NewOriginal(consoleJS, "console.js"))
			other.AddString("console.log('string')")
			if got := hashOf(other); got != wantHash {
				t.Errorf("Got: hash of an equivalent concatenation %s. Want: %s.", got, wantHash)
			}

			clone := NewConcat()
			clone.AddAllSkipOptimizing(s.Children()...)
			if clone.Source() != s.Source() {
				t.Errorf("Got: clone text %q. Want: %q.", clone.Source(), s.Source())
			}
			if got := hashOf(clone); got != wantHash {
				t.Errorf("Got: clone hash %s. Want: %s.", got, wantHash)
			}
			checkConsistency(t, s)
		})

		t.Run("generated code only", func(t *testing.T) {
			s := NewConcat(NewRaw("Hello World\n"))
			s.AddString("Hello World\n")
			s.AddString("")
			for _, opts := range []MapOptions{columnsOpts, linesOpts} {
				text, m := s.SourceAndMap(opts)
				if text != "Hello World\nHello World\n" || m != nil {
					t.Errorf("Got: SourceAndMap(%s) = %q, %+v. Want: the text and a nil map.", opts.Key(), text, m)
				}
			}
		})

		t.Run("single line", func(t *testing.T) {
			s := NewConcat(NewOriginal("Hello", "hello.txt"))
			s.AddString(" ")
			s.Add(NewOriginal("World ", "world.txt"))
			s.AddString("is here\n")
			s.Add(NewOriginal("Hello\n", "hello.txt"))
			s.AddString(" \n")
			s.Add(NewOriginal("World\n", "world.txt"))
			s.AddString("is here")

			m := s.Map(columnsOpts)
			if got, want := m.Mappings, "AAAA,K,CCAA,M;ADAA;;ACAA"; got != want {
				t.Errorf("Got: mappings %q. Want: %q.", got, want)
			}
			wantReadable := "1:0 -> [hello.txt] 1:0, :5, :6 -> [world.txt] 1:0, :12\n" +
				"2:0 -> [hello.txt] 1:0\n" +
				"4:0 -> [world.txt] 1:0"
			if got := m.Readable(); got != wantReadable {
				t.Errorf("Got:\n%s\nWant:\n%s", got, wantReadable)
			}
			if diff := cmp.Diff([]null.String{null.StringFrom("Hello"), null.StringFrom("World ")}, m.SourcesContent); diff != "" {
				t.Errorf("SourcesContent returned diff (-want,+got):\n%s", diff)
			}
			checkConsistency(t, s)
		})

		t.Run("buffers", func(t *testing.T) {
			s := NewConcat()
			s.AddString("a")
			s.Add(NewRawBuffer([]byte("b")))
			s.AddString("c")
			text, m := s.SourceAndMap(columnsOpts)
			if text != "abc" || m != nil {
				t.Errorf("Got: %q, %+v. Want: %q and a nil map.", text, m, "abc")
			}
		})

		t.Run("single child", func(t *testing.T) {
			o := NewOriginal("a\nb", "a.js")
			if diff := cmp.Diff(o.Map(columnsOpts), NewConcat(o).Map(columnsOpts)); diff != "" {
				t.Errorf("Map() of a single child concatenation returned diff (-want,+got):\n%s", diff)
			}
		})

		t.Run("nested", func(t *testing.T) {
			inner := NewConcat(NewOriginal("x", "x.js"), NewRaw("y"))
			s := NewConcat(NewRaw("a"), inner)
			if got := len(s.Children()); got != 3 {
				t.Errorf("Got: %d children. Want: 3, nested concatenations are flattened.", got)
			}
			checkConsistency(t, s)
		})
	})
}

func TestConcatStreamChunksNames(t *testing.T) {
	m := &sourcemap.Map{
		Version:  3,
		Mappings: "AAAAA",
		Sources:  []string{"a.js"},
		Names:    []string{"foo"},
	}
	s := NewConcat(
		NewSourceMapSource("foo", "a.min.js", m),
		NewRaw(";"),
		NewSourceMapSource("foo", "a.min.js", m),
	)
	got := s.Map(columnsOpts)
	if diff := cmp.Diff([]string{"foo"}, got.Names); diff != "" {
		t.Errorf("Names returned diff (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.js"}, got.Sources); diff != "" {
		t.Errorf("Sources returned diff (-want,+got):\n%s", diff)
	}
	want := "1:0 -> [a.js] 1:0 (foo), :3, :4 -> [a.js] 1:0 (foo)"
	if r := got.Readable(); r != want {
		t.Errorf("Got:\n%s\nWant:\n%s", r, want)
	}
}
