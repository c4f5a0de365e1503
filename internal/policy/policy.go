// Package policy holds the process-wide memory/performance toggles shared by
// all sources:
//
//   - dual buffer caching: whether both the string and the byte slice form of
//     a text are retained once computed;
//   - interning: whether literal texts and names are deduplicated through a
//     shared table.
//
// A policy can be described with a flag string such as
// "dualbuffer=false,interning", see Parse.
package policy

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gopherjs/jssources/internal/intern"
)

var (
	// ErrInvalidDest is a kind of error returned by parseFlags() when the dest
	// argument does not meet the requirements.
	ErrInvalidDest = errors.New("invalid flag struct")
	// ErrInvalidFormat is a kind of error returned by parseFlags() when the raw
	// flag string format is not valid.
	ErrInvalidFormat = errors.New("invalid flag string format")
)

// Flags is a complete policy description.
type Flags struct {
	DualBufferCaching bool `flag:"dualbuffer"`
	Interning         bool `flag:"interning"`
}

// Defaults returns the policy a process starts with.
func Defaults() Flags {
	return Flags{DualBufferCaching: true}
}

var (
	singleCopy atomic.Bool
	interned   intern.Table
)

// DualBufferCaching reports whether both text encodings may be cached.
func DualBufferCaching() bool { return !singleCopy.Load() }

// SetDualBufferCaching switches dual buffer caching. Values already cached
// stay valid either way.
func SetDualBufferCaching(enabled bool) { singleCopy.Store(!enabled) }

// EnableInterning opens an interning scope. Scopes nest.
func EnableInterning() { interned.Enable() }

// DisableInterning closes an interning scope; closing the last one releases
// the shared table.
func DisableInterning() { interned.Disable() }

// Interning reports whether an interning scope is open.
func Interning() bool { return interned.Enabled() }

// Intern returns the shared copy of s when interning is enabled.
func Intern(s string) string { return interned.String(s) }

// Current returns the active policy.
func Current() Flags {
	return Flags{DualBufferCaching: DualBufferCaching(), Interning: Interning()}
}

// Apply activates f and returns a function restoring the previous state.
func Apply(f Flags) (restore func()) {
	prevDual := DualBufferCaching()
	SetDualBufferCaching(f.DualBufferCaching)
	if f.Interning {
		EnableInterning()
	}
	return func() {
		if f.Interning {
			DisableInterning()
		}
		SetDualBufferCaching(prevDual)
	}
}

// Parse returns Defaults() overridden by the flags in raw.
func Parse(raw string) (Flags, error) {
	f := Defaults()
	if err := parseFlags(raw, &f); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// parseFlags parses the `raw` flags string and populates flag values in the
// `dest`.
//
// `raw` is a comma-separated flag list: `<flag1>,<flag2>,...`. Each flag may
// be either `<name>` or `<name>=<value>`. Omitting value is equivalent to
// "<name> = true". Spaces around name and value are trimmed. If the same flag
// is specified multiple times, the last instance takes effect.
//
// `dest` must be a pointer to a struct. Mapping between flag names and fields
// is established with the `flag` field tag. Unknown flags are ignored so that
// a retired toggle in a user's environment is not fatal.
func parseFlags(raw string, dest any) error {
	ptr := reflect.ValueOf(dest)
	if ptr.Type().Kind() != reflect.Pointer || ptr.Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: must be a pointer to a struct", ErrInvalidDest)
	}
	if ptr.IsNil() {
		return fmt.Errorf("%w: must not be nil", ErrInvalidDest)
	}
	fields := fieldMap(ptr.Elem())

	if strings.TrimSpace(raw) == "" {
		return nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		key, val, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if found {
			val = strings.TrimSpace(val)
		} else {
			val = "true"
		}

		if key == "" {
			return fmt.Errorf("%w: empty flag name", ErrInvalidFormat)
		}

		field, ok := fields[key]
		if !ok {
			continue
		}
		if field.Type().Kind() != reflect.Bool {
			return fmt.Errorf("%w: only boolean flags are supported", ErrInvalidDest)
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%w: can't parse %q as boolean for flag %q", ErrInvalidFormat, val, key)
		}
		field.SetBool(b)
	}
	return nil
}

// fieldMap returns the fields of struct s keyed by their "flag" tag.
func fieldMap(s reflect.Value) map[string]reflect.Value {
	typ := s.Type()
	result := map[string]reflect.Value{}
	for i := 0; i < typ.NumField(); i++ {
		if val, ok := typ.Field(i).Tag.Lookup("flag"); ok {
			result[val] = s.Field(i)
		}
	}
	return result
}
