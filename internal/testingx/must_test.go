package testingx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
)

// fatalRecorder records fatal failures instead of stopping the test.
type fatalRecorder struct {
	testing.TB
	fatal string
}

func (r *fatalRecorder) Helper() {}

func (r *fatalRecorder) Fatalf(format string, args ...any) {
	r.fatal = fmt.Sprintf(format, args...)
}

func TestMust(t *testing.T) {
	r := &fatalRecorder{TB: t}
	if got := Must[int](r)(42, nil); got != 42 || r.fatal != "" {
		t.Errorf("Got: %d, failure %q. Want: 42 and no failure.", got, r.fatal)
	}
	Must[int](r)(0, errors.New("no such file"))
	if want := "Got: unexpected error: no such file. Want: no error."; r.fatal != want {
		t.Errorf("Got: failure %q. Want: %q.", r.fatal, want)
	}
}

func TestReadMap(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"a.js.map": `{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}`,
		"a.js":     "var a;\n//# sourceMappingURL=a.js.map\n",
		"v2.map":   `{"version":2,"sources":[],"names":[],"mappings":""}`,
	}
	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatalf("Got: error writing %s: %v. Want: no error.", name, err)
		}
	}

	r := &fatalRecorder{TB: t}
	if m := ReadMap(r, fs, "a.js.map"); r.fatal != "" || m.Mappings != "AAAA" {
		t.Errorf("Got: map %+v, failure %q. Want: mappings %q and no failure.", m, r.fatal, "AAAA")
	}

	for _, name := range []string{"a.js", "v2.map"} {
		r := &fatalRecorder{TB: t}
		if m := ReadMap(r, fs, name); m != nil || r.fatal == "" {
			t.Errorf("Got: ReadMap(%q) = %+v, failure %q. Want: a test failure.", name, m, r.fatal)
		}
	}
}
