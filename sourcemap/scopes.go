package sourcemap

import (
	"strings"

	"github.com/gopherjs/jssources/internal/vlq"
)

// ScopeHasName is the OriginalScope flag announcing a name index.
const ScopeHasName = 1

// OriginalScope is one start or end item of a source's scope tree. End items
// have Flags == -1 and only carry a position.
type OriginalScope struct {
	SourceIndex int
	Line        int
	Column      int
	Flags       int
	Kind        int
	Name        int
	Variables   []int
}

// IsEnd reports whether the item closes the innermost open scope.
func (s OriginalScope) IsEnd() bool { return s.Flags < 0 }

// ReadOriginalScopes decodes the scope tree of a single source.
func ReadOriginalScopes(sourceIndex int, scopes string, onScope func(OriginalScope)) {
	pos := 0
	line := 1
	cur := OriginalScope{SourceIndex: sourceIndex, Kind: -1, Flags: -1, Name: -1}
	emit := func() {
		cur.Line = line
		onScope(cur)
		pos = 0
		cur = OriginalScope{SourceIndex: sourceIndex, Kind: -1, Flags: -1, Name: -1}
	}
	vlq.ReadTokens(scopes, func(control vlq.Control, value int) {
		if control != vlq.Value {
			if pos > 0 {
				emit()
			}
			return
		}
		switch pos {
		case 0:
			line += value
			pos++
		case 1:
			cur.Column = value
			pos++
		case 2:
			cur.Kind = value
			pos++
		case 3:
			cur.Flags = value
			pos++
			if value&ScopeHasName == 0 {
				pos++
			}
		case 4:
			cur.Name = value
			pos++
		default:
			cur.Variables = append(cur.Variables, value)
		}
	})
	if pos > 0 {
		emit()
	}
}

// ReadAllOriginalScopes decodes the "originalScopes" field of a map.
func ReadAllOriginalScopes(scopes []string, onScope func(OriginalScope)) {
	for i, s := range scopes {
		ReadOriginalScopes(i, s, onScope)
	}
}

// OriginalScopesSerializer encodes the scope tree of a single source.
type OriginalScopesSerializer struct {
	b       strings.Builder
	line    int
	written bool
}

// Add appends one item.
func (s *OriginalScopesSerializer) Add(scope OriginalScope) {
	if s.written {
		s.b.WriteByte(',')
	} else {
		s.line = 1
	}
	s.written = true
	vlq.AppendString(&s.b, scope.Line-s.line)
	s.line = scope.Line
	vlq.AppendString(&s.b, scope.Column)
	if scope.Flags < 0 {
		return
	}
	vlq.AppendString(&s.b, scope.Kind)
	vlq.AppendString(&s.b, scope.Flags)
	if scope.Flags&ScopeHasName != 0 {
		vlq.AppendString(&s.b, scope.Name)
	}
	for _, v := range scope.Variables {
		vlq.AppendString(&s.b, v)
	}
}

// String returns the encoded scope tree.
func (s *OriginalScopesSerializer) String() string { return s.b.String() }
