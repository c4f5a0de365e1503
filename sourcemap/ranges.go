package sourcemap

import (
	"strings"

	"github.com/gopherjs/jssources/internal/vlq"
)

// GeneratedRange flags.
const (
	RangeHasDefinition = 1
	RangeHasCallsite   = 2
)

// GeneratedRange is one start or end item of the generated range tree. End
// items have Flags == -1 and only carry a position.
type GeneratedRange struct {
	Line       int
	Column     int
	Flags      int
	Definition *RangeDefinition
	Callsite   *Callsite
	Bindings   []Binding
}

// IsEnd reports whether the item closes the innermost open range.
func (r GeneratedRange) IsEnd() bool { return r.Flags < 0 }

// RangeDefinition references the original scope a range was generated from.
type RangeDefinition struct {
	SourceIndex int
	ScopeIndex  int
}

// Callsite references the original location a range was inlined from.
type Callsite struct {
	SourceIndex int
	Line        int
	Column      int
}

// Binding is the name index of the expression a variable is bound to, with
// optional subranges switching to other expressions.
type Binding struct {
	Expression int
	Subranges  []Subrange
}

// Subrange values are kept as encoded.
type Subrange struct {
	Line       int
	Column     int
	Expression int
}

// ReadGeneratedRanges decodes a "generatedRanges" field.
func ReadGeneratedRanges(ranges string, onRange func(GeneratedRange)) {
	const (
		posColumn = iota
		posFlags
		posDefSource
		posDefScope
		posCallSource
		posCallLine
		posCallColumn
		posBinding
		posBindingNext
		posSubLine
		posSubColumn
		posSubExpr
	)
	pos := posColumn
	line, column := 1, 0
	flags := -1
	var def RangeDefinition
	var call Callsite
	var bindings []Binding
	remaining := 0

	emit := func() {
		switch {
		case pos == posFlags:
			onRange(GeneratedRange{Line: line, Column: column, Flags: -1})
		case pos > posFlags:
			r := GeneratedRange{Line: line, Column: column, Flags: flags, Bindings: bindings}
			if flags&RangeHasDefinition != 0 {
				d := def
				r.Definition = &d
			}
			if flags&RangeHasCallsite != 0 {
				c := call
				r.Callsite = &c
			}
			onRange(r)
		}
		pos = posColumn
		flags = 0
		bindings = nil
	}

	vlq.ReadTokens(ranges, func(control vlq.Control, value int) {
		if control != vlq.Value {
			emit()
			if control == vlq.NextLine {
				line++
				column = 0
			}
			return
		}
		switch pos {
		case posColumn:
			column += value
			pos = posFlags
			return
		case posFlags:
			flags = value
			pos = posDefSource
			return
		case posBindingNext:
			if value >= 0 {
				bindings = append(bindings, Binding{Expression: value})
				return
			}
			remaining = -value
			pos = posSubLine
			return
		case posSubLine:
			last := &bindings[len(bindings)-1]
			last.Subranges = append(last.Subranges, Subrange{Line: value})
			pos = posSubColumn
			return
		case posSubColumn:
			last := &bindings[len(bindings)-1]
			last.Subranges[len(last.Subranges)-1].Column = value
			pos = posSubExpr
			return
		case posSubExpr:
			last := &bindings[len(bindings)-1]
			last.Subranges[len(last.Subranges)-1].Expression = value
			remaining--
			if remaining <= 0 {
				pos = posBindingNext
			} else {
				pos = posSubLine
			}
			return
		}
		// Optional definition and callsite fields, then the first binding.
		if pos <= posDefScope && flags&RangeHasDefinition != 0 {
			if pos == posDefSource {
				def.SourceIndex += value
				if value != 0 {
					def.ScopeIndex = 0
				}
				pos = posDefScope
			} else {
				def.ScopeIndex += value
				pos = posCallSource
			}
			return
		}
		if pos <= posCallColumn && flags&RangeHasCallsite != 0 {
			if pos < posCallSource {
				pos = posCallSource
			}
			switch pos {
			case posCallSource:
				call.SourceIndex += value
				if value != 0 {
					call.Line, call.Column = 0, 0
				}
				pos = posCallLine
			case posCallLine:
				call.Line += value
				if value != 0 {
					call.Column = 0
				}
				pos = posCallColumn
			case posCallColumn:
				call.Column += value
				pos = posBinding
			}
			return
		}
		bindings = append(bindings, Binding{Expression: value})
		pos = posBindingNext
	})
	emit()
}

// GeneratedRangesSerializer encodes a generated range tree. Items must be
// added in increasing generated position order.
type GeneratedRangesSerializer struct {
	b       strings.Builder
	started bool
	line    int
	column  int
	def     RangeDefinition
	call    Callsite
}

// Add appends one item.
func (s *GeneratedRangesSerializer) Add(r GeneratedRange) {
	if !s.started {
		s.line = 1
	}
	switch {
	case s.line < r.Line:
		s.b.WriteString(strings.Repeat(";", r.Line-s.line))
		s.line = r.Line
		s.column = 0
	case s.started:
		s.b.WriteByte(',')
	}
	s.started = true
	vlq.AppendString(&s.b, r.Column-s.column)
	s.column = r.Column
	if r.Flags < 0 {
		return
	}
	vlq.AppendString(&s.b, r.Flags)
	if r.Definition != nil {
		d := *r.Definition
		vlq.AppendString(&s.b, d.SourceIndex-s.def.SourceIndex)
		if d.SourceIndex != s.def.SourceIndex {
			s.def = RangeDefinition{SourceIndex: d.SourceIndex}
		}
		vlq.AppendString(&s.b, d.ScopeIndex-s.def.ScopeIndex)
		s.def.ScopeIndex = d.ScopeIndex
	}
	if r.Callsite != nil {
		c := *r.Callsite
		vlq.AppendString(&s.b, c.SourceIndex-s.call.SourceIndex)
		if c.SourceIndex != s.call.SourceIndex {
			s.call = Callsite{SourceIndex: c.SourceIndex}
		}
		vlq.AppendString(&s.b, c.Line-s.call.Line)
		if c.Line != s.call.Line {
			s.call.Line = c.Line
			s.call.Column = 0
		}
		vlq.AppendString(&s.b, c.Column-s.call.Column)
		s.call.Column = c.Column
	}
	for _, b := range r.Bindings {
		vlq.AppendString(&s.b, b.Expression)
		if len(b.Subranges) == 0 {
			continue
		}
		vlq.AppendString(&s.b, -len(b.Subranges))
		for _, sub := range b.Subranges {
			vlq.AppendString(&s.b, sub.Line)
			vlq.AppendString(&s.b, sub.Column)
			vlq.AppendString(&s.b, sub.Expression)
		}
	}
}

// String returns the encoded ranges.
func (s *GeneratedRangesSerializer) String() string { return s.b.String() }

// Len returns the length of the encoded ranges.
func (s *GeneratedRangesSerializer) Len() int { return s.b.Len() }
