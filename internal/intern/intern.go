// Package intern implements a reference-counted string deduplication table.
package intern

import "sync"

// Table keeps a single copy of every string passed to String while at least
// one Enable call is outstanding. The last matching Disable releases the
// stored strings.
type Table struct {
	mu      sync.Mutex
	refs    int
	strings map[string]string
}

// Enable activates interning and increments the reference count.
func (t *Table) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs++
	if t.strings == nil {
		t.strings = map[string]string{}
	}
}

// Disable decrements the reference count. When it drops to zero the table is
// cleared.
func (t *Table) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs--
	if t.refs <= 0 {
		t.refs = 0
		t.strings = nil
	}
}

// Enabled reports whether interning is active.
func (t *Table) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refs > 0
}

// Len returns the number of stored strings.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.strings)
}

// String returns the stored copy of s, storing s first if needed. When
// interning is disabled s is returned unchanged.
func (t *Table) String(s string) string {
	if s == "" {
		return s
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refs <= 0 {
		return s
	}
	if stored, ok := t.strings[s]; ok {
		return stored
	}
	t.strings[s] = s
	return s
}
