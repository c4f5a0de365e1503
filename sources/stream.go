package sources

import (
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/internal/lines"
	"github.com/gopherjs/jssources/sourcemap"
)

// generatedInfo reports the end position of source, together with the text
// itself.
func generatedInfo(source string) StreamResult {
	line, column := lines.End(source)
	return StreamResult{GeneratedLine: line, GeneratedColumn: column, Source: null.StringFrom(source)}
}

// streamChunksOfRawSource streams a text without provenance: one unmapped
// chunk per line, or nothing at all in final source mode.
func streamChunksOfRawSource(source string, h *Handlers, finalSource bool) StreamResult {
	if finalSource {
		return generatedInfo(source)
	}
	line := 1
	var last string
	for _, l := range lines.Split(source) {
		h.Chunk(l, line, 0, -1, -1, -1, -1)
		line++
		last = l
	}
	if last == "" || strings.HasSuffix(last, "\n") {
		return StreamResult{GeneratedLine: line, GeneratedColumn: 0}
	}
	return StreamResult{GeneratedLine: line - 1, GeneratedColumn: len(last)}
}

// announceMap reports all sources, names, scopes and ranges of m to h.
func announceMap(m *sourcemap.Map, h *Handlers) {
	for i := range m.Sources {
		h.Source(i, m.SourceName(i), m.SourceContent(i))
	}
	for i, name := range m.Names {
		h.Name(i, name)
	}
	if h.OriginalScope != nil {
		sourcemap.ReadAllOriginalScopes(m.OriginalScopes, h.OriginalScope)
	}
	if h.GeneratedRange != nil {
		sourcemap.ReadGeneratedRanges(m.GeneratedRanges, h.GeneratedRange)
	}
}

// streamChunksOfSourceMap replays a text together with the map describing
// it. Mappings pointing outside of source are ignored.
func streamChunksOfSourceMap(source string, m *sourcemap.Map, h *Handlers, finalSource bool) StreamResult {
	if m == nil {
		return streamChunksOfRawSource(source, h, finalSource)
	}
	if finalSource {
		return streamChunksOfSourceMapFinal(source, m, h)
	}
	return streamChunksOfSourceMapFull(source, m, h)
}

func streamChunksOfSourceMapFull(source string, m *sourcemap.Map, h *Handlers) StreamResult {
	ls := lines.Split(source)
	if len(ls) == 0 {
		return StreamResult{GeneratedLine: 1, GeneratedColumn: 0}
	}
	announceMap(m, h)

	lastLine := ls[len(ls)-1]
	finalLine, finalColumn := len(ls), len(lastLine)
	if strings.HasSuffix(lastLine, "\n") {
		finalLine, finalColumn = len(ls)+1, 0
	}

	currentLine, currentColumn := 1, 0
	mappingActive := false
	activeSource, activeOriginalLine, activeOriginalColumn, activeName := -1, -1, -1, -1

	onMapping := func(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
		if mappingActive && currentLine <= len(ls) {
			chunkLine, chunkColumn := currentLine, currentColumn
			line := ls[currentLine-1]
			var chunk string
			if generatedLine != currentLine {
				chunk = lines.Slice(line, currentColumn, len(line))
				currentLine++
				currentColumn = 0
			} else {
				chunk = lines.Slice(line, currentColumn, generatedColumn)
				currentColumn = generatedColumn
			}
			if chunk != "" {
				h.Chunk(chunk, chunkLine, chunkColumn, activeSource, activeOriginalLine, activeOriginalColumn, activeName)
			}
			mappingActive = false
		}
		if generatedLine > currentLine && currentColumn > 0 {
			if currentLine <= len(ls) {
				line := ls[currentLine-1]
				if chunk := lines.Slice(line, currentColumn, len(line)); chunk != "" {
					h.Chunk(chunk, currentLine, currentColumn, -1, -1, -1, -1)
				}
			}
			currentLine++
			currentColumn = 0
		}
		for generatedLine > currentLine {
			if currentLine <= len(ls) {
				h.Chunk(ls[currentLine-1], currentLine, 0, -1, -1, -1, -1)
			}
			currentLine++
		}
		if generatedColumn > currentColumn {
			if currentLine <= len(ls) {
				if chunk := lines.Slice(ls[currentLine-1], currentColumn, generatedColumn); chunk != "" {
					h.Chunk(chunk, currentLine, currentColumn, -1, -1, -1, -1)
				}
			}
			currentColumn = generatedColumn
		}
		if sourceIndex >= 0 && (generatedLine < finalLine || (generatedLine == finalLine && generatedColumn < finalColumn)) {
			mappingActive = true
			activeSource = sourceIndex
			activeOriginalLine = originalLine
			activeOriginalColumn = originalColumn
			activeName = nameIndex
		}
	}
	sourcemap.ReadMappings(m.Mappings, onMapping)
	onMapping(finalLine, finalColumn, -1, -1, -1, -1)
	return StreamResult{GeneratedLine: finalLine, GeneratedColumn: finalColumn}
}

// streamChunksOfSourceMapFinal emits mapping positions only. Unmapped chunks
// are reported when they end a mapping on the same line.
func streamChunksOfSourceMapFinal(source string, m *sourcemap.Map, h *Handlers) StreamResult {
	result := generatedInfo(source)
	finalLine, finalColumn := result.GeneratedLine, result.GeneratedColumn
	if finalLine == 1 && finalColumn == 0 {
		return result
	}
	announceMap(m, h)

	activeLine := 0
	sourcemap.ReadMappings(m.Mappings, func(generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
		if generatedLine > finalLine || (generatedLine == finalLine && generatedColumn >= finalColumn) {
			return
		}
		if sourceIndex >= 0 {
			h.Chunk("", generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
			activeLine = generatedLine
		} else if activeLine == generatedLine {
			h.Chunk("", generatedLine, generatedColumn, -1, -1, -1, -1)
			activeLine = 0
		}
	})
	return result
}
