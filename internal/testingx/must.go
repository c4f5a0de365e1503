// Package testingx provides helpers for tests that read bundles and source
// maps back from a file system.
package testingx

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/gopherjs/jssources/sourcemap"
)

// Must returns the value of a call that can only fail if the test itself is
// broken, and aborts the test otherwise.
//
// It must not be used to check the conditions under test, its failure message
// says nothing about what was expected.
//
//	h := testingx.Must[hash.Hash](t)(blake2b.New256(nil))
func Must[T any](t testing.TB) func(v T, err error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("Got: unexpected error: %s. Want: no error.", err)
		}
		return v
	}
}

// ReadFile returns the content of the file name in fs.
func ReadFile(t testing.TB, fs afero.Fs, name string) string {
	t.Helper()
	return string(Must[[]byte](t)(afero.ReadFile(fs, name)))
}

// ReadMap parses the source map stored in the file name in fs. A file that
// holds a bundle or a map of another version fails the test.
func ReadMap(t testing.TB, fs afero.Fs, name string) *sourcemap.Map {
	t.Helper()
	return Must[*sourcemap.Map](t)(sourcemap.Parse([]byte(ReadFile(t, fs, name))))
}
