package sources

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestReplace(t *testing.T) {
	tests := []struct {
		name          string
		original      string
		edit          func(r *Replace)
		wantText      string
		wantMappings  string
		wantLines     string
		wantReadable  string
		wantLinesRead string
	}{{
		name:     "replace correctly",
		original: "Hello World!\n{}\nLine 3\nLine 4\nLine 5\nLast\nLine",
		edit: func(r *Replace) {
			r.Replace(16, 37, "", "")
			r.Replace(1, 5, "i ", "")
			r.Replace(1, 5, "bye", "")
			r.Replace(7, 8, "0000", "")
			r.Insert(14, "\n Multi Line\n", "")
			r.Replace(41, 42, " ", "")
		},
		wantText: "Hi bye W0000rld!\n{\n Multi Line\n}\nLast Line",
		wantReadable: "1:0 -> [file.txt] 1:0, :1 -> [file.txt] 1:1, :3 -> [file.txt] 1:5, :8 -> [file.txt] 1:7, :12 -> [file.txt] 1:8\n" +
			"2:0 -> [file.txt] 2:0, :1 -> [file.txt] 2:1\n" +
			"3:0 -> [file.txt] 2:1\n" +
			"4:0 -> [file.txt] 2:1\n" +
			"5:0 -> [file.txt] 6:0, :4 -> [file.txt] 6:4, :5 -> [file.txt] 7:0",
		wantLinesRead: "1:0 -> [file.txt] 1:0\n" +
			"2:0 -> [file.txt] 2:0\n" +
			"3:0 -> [file.txt] 2:0\n" +
			"4:0 -> [file.txt] 2:0\n" +
			"5:0 -> [file.txt] 6:0",
	}, {
		name:     "multiple items",
		original: "Hello\nWorld!",
		edit: func(r *Replace) {
			r.Insert(0, "Message: ", "")
			r.Replace(2, 10, "y A", "")
		},
		wantText:     "Message: Hey Ad!",
		wantMappings: "AAAA,WAAE,GACE",
		wantLines:    "AAAA",
	}, {
		name:     "prepend",
		original: "Line 1",
		edit: func(r *Replace) {
			r.Insert(-1, "Line -1\n", "")
			r.Insert(-1, "Line 0\n", "")
		},
		wantText:     "Line -1\nLine 0\nLine 1",
		wantMappings: "AAAA;AAAA;AAAA",
		wantLines:    "AAAA;AAAA;AAAA",
	}, {
		name:     "prepend with replace at start",
		original: "Line 1\nLine 2",
		edit: func(r *Replace) {
			r.Insert(-1, "Line 0\n", "")
			r.Replace(0, 6, "Hello", "")
		},
		wantText:     "Line 0\nHello\nLine 2",
		wantMappings: "AAAA;AAAA,KAAM;AACN",
		wantLines:    "AAAA;AAAA;AACA",
	}, {
		name:     "append",
		original: "Line 1\n",
		edit: func(r *Replace) {
			r.Insert(8, "Line 2\n", "")
		},
		wantText:     "Line 1\nLine 2\n",
		wantMappings: "AAAA",
		wantLines:    "AAAA",
	}, {
		name:     "names",
		original: "   var hello\n   var world\n",
		edit: func(r *Replace) {
			r.Replace(7, 12, "h", "hello")
			r.Replace(20, 25, "w", "world")
		},
		wantText: "   var h\n   var w\n",
		wantReadable: "1:0 -> [file.txt] 1:0, :7 -> [file.txt] 1:7 (hello), :8 -> [file.txt] 1:12\n" +
			"2:0 -> [file.txt] 2:0, :7 -> [file.txt] 2:7 (world), :8 -> [file.txt] 2:12",
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			withPolicies(t, func(t *testing.T) {
				r := NewReplace(NewOriginal(test.original, "file.txt"), "")
				test.edit(r)

				if got := r.Original().Source(); got != test.original {
					t.Errorf("Got: original text %q. Want: %q.", got, test.original)
				}
				if got := r.Source(); got != test.wantText {
					t.Errorf("Got: %q. Want: %q.", got, test.wantText)
				}
				text, m := r.SourceAndMap(columnsOpts)
				linesText, linesMap := r.SourceAndMap(linesOpts)
				if text != test.wantText || linesText != test.wantText {
					t.Errorf("Got: SourceAndMap() texts %q and %q. Want: %q.", text, linesText, test.wantText)
				}
				if diff := cmp.Diff(m.Sources, linesMap.Sources); diff != "" {
					t.Errorf("Sources of the columns and lines maps differ (-columns,+lines):\n%s", diff)
				}
				if diff := cmp.Diff(m.SourcesContent, linesMap.SourcesContent); diff != "" {
					t.Errorf("SourcesContent of the columns and lines maps differ (-columns,+lines):\n%s", diff)
				}
				if test.wantMappings != "" && m.Mappings != test.wantMappings {
					t.Errorf("Got: columns mappings %q. Want: %q.", m.Mappings, test.wantMappings)
				}
				if test.wantLines != "" && linesMap.Mappings != test.wantLines {
					t.Errorf("Got: lines mappings %q. Want: %q.", linesMap.Mappings, test.wantLines)
				}
				if test.wantReadable != "" {
					if got := m.Readable(); got != test.wantReadable {
						t.Errorf("Got:\n%s\nWant:\n%s", got, test.wantReadable)
					}
				}
				if test.wantLinesRead != "" {
					if got := linesMap.Readable(); got != test.wantLinesRead {
						t.Errorf("Got:\n%s\nWant:\n%s", got, test.wantLinesRead)
					}
				}
			})
		})
	}
}

func TestReplaceNames(t *testing.T) {
	r := NewReplace(NewOriginal("   var hello\n   var world\n", "file.js"), "")
	r.Replace(7, 12, "h", "hello")
	r.Replace(20, 25, "w", "world")
	m := r.Map(columnsOpts)
	if diff := cmp.Diff([]string{"hello", "world"}, m.Names); diff != "" {
		t.Errorf("Names returned diff (-want,+got):\n%s", diff)
	}
}

func TestReplaceWithoutReplacements(t *testing.T) {
	o := NewOriginal("a;\nb;\n", "a.js")
	r := NewReplace(o, "")
	if diff := cmp.Diff(o.Map(columnsOpts), r.Map(columnsOpts)); diff != "" {
		t.Errorf("Map() returned diff (-want,+got):\n%s", diff)
	}
	checkConsistency(t, r)
}

func TestReplaceOrder(t *testing.T) {
	r := NewReplace(NewRaw("0123456789"), "")
	r.Replace(5, 7, "b", "")
	r.Insert(2, "x", "")
	r.Replace(2, 4, "a", "")
	r.Insert(2, "y", "")

	got := r.Replacements()
	want := []Replacement{
		{Start: 2, End: 2, Content: "x"},
		{Start: 2, End: 2, Content: "y"},
		{Start: 2, End: 4, Content: "a"},
		{Start: 5, End: 7, Content: "b"},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Replacement{})); diff != "" {
		t.Errorf("Replacements() returned diff (-want,+got):\n%s", diff)
	}
	if got, want := r.Source(), "01xya4b789"; got != want {
		t.Errorf("Got: %q. Want: %q.", got, want)
	}
	checkConsistency(t, r)
}

func TestReplaceBeyondEnd(t *testing.T) {
	r := NewReplace(NewOriginal("abc", "a.js"), "")
	r.Insert(10, "\ntail", "")
	r.Replace(1, 2, "B", "")
	if got, want := r.Source(), "aBc\ntail"; got != want {
		t.Errorf("Got: %q. Want: %q.", got, want)
	}
	checkConsistency(t, r)
}

func TestReplaceAcrossLines(t *testing.T) {
	tests := []struct {
		name         string
		original     string
		edit         func(r *Replace)
		wantText     string
		wantReadable string
	}{{
		name:     "replacement joins lines",
		original: "a;b\n{c}\n  d;",
		edit: func(r *Replace) {
			r.Replace(0, 8, "X", "")
		},
		wantText:     "X  d;",
		wantReadable: "1:0 -> [a.js] 1:0, :1 -> [a.js] 3:0",
	}, {
		name:     "replacement nested in a joining one",
		original: "a;b\n{c}\n  d;",
		edit: func(r *Replace) {
			r.Replace(0, 8, "X", "")
			r.Replace(2, 4, "Y", "")
		},
		wantText: "XY  d;",
	}, {
		name:     "removal at the start of a chunk",
		original: "ab;cd;ef",
		edit: func(r *Replace) {
			r.Replace(1, 4, "", "")
		},
		wantText:     "ad;ef",
		wantReadable: "1:0 -> [a.js] 1:0, :1 -> [a.js] 1:4, :3 -> [a.js] 1:6",
	}, {
		name:     "insertion splits a line",
		original: "a;b",
		edit: func(r *Replace) {
			r.Insert(1, "X\nY", "")
		},
		wantText:     "aX\nY;b",
		wantReadable: "1:0 -> [a.js] 1:0, :1 -> [a.js] 1:1\n2:0 -> [a.js] 1:1, :2 -> [a.js] 1:2",
	}, {
		name:     "removal of a line end after an insertion",
		original: "a;b\nc;",
		edit: func(r *Replace) {
			r.Insert(2, "X\nY", "")
			r.Replace(3, 4, "", "")
		},
		wantText: "a;X\nYbc;",
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewReplace(NewOriginal(test.original, "a.js"), "")
			test.edit(r)
			if got := r.Source(); got != test.wantText {
				t.Fatalf("Got: %q. Want: %q.", got, test.wantText)
			}
			if test.wantReadable != "" {
				if got := r.Map(columnsOpts).Readable(); got != test.wantReadable {
					t.Errorf("Got:\n%s\nWant:\n%s", got, test.wantReadable)
				}
			}
			checkConsistency(t, r)
			checkConsistency(t, NewPrefix("//", r))
			checkConsistency(t, NewConcat(r, NewOriginal("tail", "t.js")))
		})
	}
}

func TestReplaceJoinedLineInConcat(t *testing.T) {
	tests := []struct {
		name       string
		edit       func(r *Replace)
		wantKept   [2]int
		wantTail   [2]int
		wantResult [2]int
	}{{
		name: "single replacement",
		edit: func(r *Replace) {
			r.Replace(0, 8, "X", "")
		},
		wantKept:   [2]int{1, 1},
		wantTail:   [2]int{1, 5},
		wantResult: [2]int{1, 9},
	}, {
		name: "nested replacement",
		edit: func(r *Replace) {
			r.Replace(0, 8, "X", "")
			r.Replace(2, 4, "Y", "")
		},
		wantKept:   [2]int{1, 2},
		wantTail:   [2]int{1, 6},
		wantResult: [2]int{1, 10},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewReplace(NewOriginal("a;b\n{c}\n  d;", "a.js"), "")
			test.edit(r)
			chunks, _, _, result := collect(NewConcat(r, NewOriginal("tail", "t.js")), StreamOptions{})

			positions := map[string][2]int{}
			for _, c := range chunks {
				positions[c.Text] = [2]int{c.GeneratedLine, c.GeneratedCol}
			}
			if got := positions["  d;"]; got != test.wantKept {
				t.Errorf("Got: %q at %v. Want: at %v.", "  d;", got, test.wantKept)
			}
			if got := positions["tail"]; got != test.wantTail {
				t.Errorf("Got: %q at %v. Want: at %v.", "tail", got, test.wantTail)
			}
			if got := [2]int{result.GeneratedLine, result.GeneratedColumn}; got != test.wantResult {
				t.Errorf("Got: stream end %v. Want: %v.", got, test.wantResult)
			}
		})
	}
}

// A replacement starting inside an earlier, wider one is not dropped: its
// content is written where the wider one ends.
func TestReplaceNested(t *testing.T) {
	r := NewReplace(NewOriginal("abcd!", "a.js"), "")
	r.Replace(0, 3, "X", "")
	r.Replace(1, 2, "Y", "")
	if got, want := r.Source(), "XYd!"; got != want {
		t.Errorf("Got: %q. Want: %q.", got, want)
	}
	checkConsistency(t, r)
}

func TestReplaceHash(t *testing.T) {
	build := func(content string) *Replace {
		r := NewReplace(NewRaw("abc"), "r")
		r.Replace(1, 2, content, "")
		return r
	}
	if hashOf(build("x")) != hashOf(build("x")) {
		t.Errorf("Got: different hashes for identical replacements. Want: equal.")
	}
	if hashOf(build("x")) == hashOf(build("y")) {
		t.Errorf("Got: equal hashes for different replacement contents. Want: different.")
	}
}
