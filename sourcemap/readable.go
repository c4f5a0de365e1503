package sourcemap

import (
	"fmt"
	"strings"
)

// Readable renders mappings one generated line per output line, e.g.
//
//	1:0 -> [a.js] 1:0, :5 -> [a.js] 1:9 (foo)
//	2:0
//
// Source and name indices are resolved through sources and names when they
// are in range.
func Readable(mappings string, sources, names []string) string {
	var b strings.Builder
	currentLine := 0
	ReadMappings(mappings, func(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
		switch {
		case currentLine == 0:
		case currentLine == generatedLine:
			b.WriteString(", ")
		default:
			b.WriteByte('\n')
		}
		if currentLine != generatedLine {
			fmt.Fprintf(&b, "%d", generatedLine)
			currentLine = generatedLine
		}
		fmt.Fprintf(&b, ":%d", generatedColumn)
		if sourceIndex >= 0 {
			fmt.Fprintf(&b, " -> [%s] %d:%d", lookupName(sources, sourceIndex), originalLine, originalColumn)
		}
		if nameIndex >= 0 {
			fmt.Fprintf(&b, " (%s)", lookupName(names, nameIndex))
		}
	})
	return b.String()
}

// Readable renders the mappings of m.
func (m *Map) Readable() string {
	if m == nil {
		return ""
	}
	return Readable(m.Mappings, m.Sources, m.Names)
}

func lookupName(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return fmt.Sprint(i)
}
