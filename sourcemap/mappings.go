package sourcemap

import (
	"strings"

	"github.com/gopherjs/jssources/internal/vlq"
)

// ReadMappings decodes a "mappings" string and calls onMapping for every
// segment in order. Missing optional fields are reported as -1. Segments that
// don't advance the generated column within a line, and segments with 2 or 3
// fields, are dropped.
func ReadMappings(mappings string, onMapping func(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int)) {
	// generatedColumn, [sourceIndex, originalLine, originalColumn, [nameIndex]]
	current := [5]int{0, 0, 1, 0, 0}
	pos := 0
	generatedLine := 1
	generatedColumn := -1

	flush := func() {
		switch pos {
		case 1:
			onMapping(generatedLine, current[0], -1, -1, -1, -1)
		case 4:
			onMapping(generatedLine, current[0], current[1], current[2], current[3], -1)
		case 5:
			onMapping(generatedLine, current[0], current[1], current[2], current[3], current[4])
		}
	}

	vlq.ReadTokens(mappings, func(control vlq.Control, value int) {
		if control == vlq.Value {
			if pos < len(current) {
				current[pos] += value
			}
			pos++
			return
		}
		if current[0] > generatedColumn {
			flush()
			generatedColumn = current[0]
		}
		pos = 0
		if control == vlq.NextLine {
			generatedLine++
			current[0] = 0
			generatedColumn = -1
		}
	})
	if current[0] > generatedColumn {
		flush()
	}
}

// MappingsSerializer encodes mapping tuples into a "mappings" string. Tuples
// must be added in increasing generated position order.
//
// In full mode every mapped segment is written, and an unmapped segment is
// written only when it terminates a mapping active on the same line. In
// lines-only mode only the first mapped segment of each line is written, with
// generated and original column 0 and no name.
type MappingsSerializer struct {
	linesOnly bool
	b         strings.Builder

	line           int
	column         int
	sourceIndex    int
	originalLine   int
	originalColumn int
	nameIndex      int
	activeMapping  bool
	activeName     bool
	initial        bool
	lastLine       int
}

// NewMappingsSerializer returns an empty serializer.
func NewMappingsSerializer(linesOnly bool) *MappingsSerializer {
	return &MappingsSerializer{
		linesOnly:    linesOnly,
		line:         1,
		originalLine: 1,
		initial:      true,
	}
}

// Add appends one tuple. A negative sourceIndex marks unmapped generated code.
func (s *MappingsSerializer) Add(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
	if s.linesOnly {
		s.addLine(generatedLine, sourceIndex, originalLine)
		return
	}
	if s.activeMapping && s.line == generatedLine {
		if sourceIndex == s.sourceIndex && originalLine == s.originalLine && originalColumn == s.originalColumn && !s.activeName && nameIndex < 0 {
			// Same original position as the active mapping.
			return
		}
	} else if sourceIndex < 0 {
		return
	}
	for s.line < generatedLine {
		s.b.WriteByte(';')
		s.line++
		s.initial = true
		s.column = 0
	}
	if !s.initial {
		s.b.WriteByte(',')
	}
	s.initial = false
	vlq.AppendString(&s.b, generatedColumn-s.column)
	s.column = generatedColumn
	if sourceIndex < 0 {
		s.activeMapping = false
		return
	}
	s.activeMapping = true
	vlq.AppendString(&s.b, sourceIndex-s.sourceIndex)
	s.sourceIndex = sourceIndex
	vlq.AppendString(&s.b, originalLine-s.originalLine)
	s.originalLine = originalLine
	vlq.AppendString(&s.b, originalColumn-s.originalColumn)
	s.originalColumn = originalColumn
	s.activeName = nameIndex >= 0
	if s.activeName {
		vlq.AppendString(&s.b, nameIndex-s.nameIndex)
		s.nameIndex = nameIndex
	}
}

func (s *MappingsSerializer) addLine(generatedLine, sourceIndex, originalLine int) {
	if sourceIndex < 0 || generatedLine <= s.lastLine {
		return
	}
	s.lastLine = generatedLine
	for s.line < generatedLine {
		s.b.WriteByte(';')
		s.line++
	}
	s.b.WriteByte('A')
	vlq.AppendString(&s.b, sourceIndex-s.sourceIndex)
	s.sourceIndex = sourceIndex
	vlq.AppendString(&s.b, originalLine-s.originalLine)
	s.originalLine = originalLine
	s.b.WriteByte('A')
}

// String returns the encoded mappings.
func (s *MappingsSerializer) String() string { return s.b.String() }

// Len returns the length of the encoded mappings.
func (s *MappingsSerializer) Len() int { return s.b.Len() }
