package sources

import (
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/internal/lines"
	"github.com/gopherjs/jssources/internal/policy"
	"github.com/gopherjs/jssources/sourcemap"
)

// Replacement replaces the bytes [Start, End) of the original text with
// Content. Start == End is an insertion.
type Replacement struct {
	Start   int
	End     int
	Content string
	Name    string
	index   int
}

// Replace applies replacements to the text of another source, keeping the
// mappings of everything that isn't replaced. Replacement contents inherit
// the original position they are inserted at.
type Replace struct {
	source       Source
	name         string
	replacements []Replacement
	sorted       bool
}

var _ Source = (*Replace)(nil)

// NewReplace returns a Replace over source without replacements.
func NewReplace(source Source, name string) *Replace {
	return &Replace{source: source, name: name, sorted: true}
}

// Original returns the source replacements apply to.
func (r *Replace) Original() Source { return r.source }

// Name returns the name given to NewReplace.
func (r *Replace) Name() string { return r.name }

// Replace replaces the bytes [start, end) of the original text with content.
// name, when not empty, is attached to the mapping of the content.
func (r *Replace) Replace(start, end int, content, name string) {
	r.replacements = append(r.replacements, Replacement{
		Start:   start,
		End:     end,
		Content: policy.Intern(content),
		Name:    policy.Intern(name),
		index:   len(r.replacements),
	})
	r.sorted = false
}

// Insert inserts content before the byte at pos.
func (r *Replace) Insert(pos int, content, name string) {
	r.Replace(pos, pos, content, name)
}

// Replacements returns the replacements in the order they are applied.
func (r *Replace) Replacements() []Replacement {
	r.sort()
	return r.replacements
}

func (r *Replace) sort() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.replacements, func(i, j int) bool {
		a, b := r.replacements[i], r.replacements[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	r.sorted = true
}

func (r *Replace) Source() string {
	var b strings.Builder
	r.StreamChunks(StreamOptions{MapOptions: MapOptions{LinesOnly: true}}, &Handlers{
		Chunk: func(chunk string, _, _, _, _, _, _ int) {
			b.WriteString(chunk)
		},
		Source: noopSource,
		Name:   noopName,
	})
	return b.String()
}

func (r *Replace) Buffer() []byte { return []byte(r.Source()) }

func (r *Replace) Size() int { return len(r.Source()) }

func (r *Replace) Map(opts MapOptions) *sourcemap.Map {
	if len(r.replacements) == 0 {
		return r.source.Map(opts)
	}
	return GetMap(r, opts)
}

func (r *Replace) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	if len(r.replacements) == 0 {
		return r.source.SourceAndMap(opts)
	}
	return GetSourceAndMap(r, opts)
}

func (r *Replace) UpdateHash(h io.Writer) {
	r.sort()
	writeHash(h, "ReplaceSource")
	r.source.UpdateHash(h)
	writeHash(h, r.name)
	for _, repl := range r.replacements {
		writeHash(h, strconv.Itoa(repl.Start))
		writeHash(h, strconv.Itoa(repl.End))
		writeHash(h, repl.Content)
		writeHash(h, strconv.Itoa(repl.index))
		writeHash(h, repl.Name)
	}
}

// originalContents keeps the contents of the sources of the wrapped stream,
// split into lines on first use.
type originalContents struct {
	contents []null.String
	lines    [][]string
}

func (oc *originalContents) set(i int, content null.String) {
	for len(oc.contents) <= i {
		oc.contents = append(oc.contents, null.String{})
		oc.lines = append(oc.lines, nil)
	}
	oc.contents[i] = content
	oc.lines[i] = nil
}

// matches reports whether the original text at line:column starts with
// expected.
func (oc *originalContents) matches(sourceIndex, line, column int, expected string) bool {
	if sourceIndex < 0 || sourceIndex >= len(oc.contents) || !oc.contents[sourceIndex].Valid {
		return false
	}
	if oc.lines[sourceIndex] == nil {
		oc.lines[sourceIndex] = lines.Split(oc.contents[sourceIndex].String)
	}
	ls := oc.lines[sourceIndex]
	if line < 1 || line > len(ls) {
		return false
	}
	return lines.Slice(ls[line-1], column, column+len(expected)) == expected
}

func (r *Replace) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	r.sort()
	repls := r.replacements
	pos := 0
	i := 0
	replacementEnd := -1
	nextReplacement := math.MaxInt
	if len(repls) > 0 {
		nextReplacement = repls[0].Start
	}
	lineOffset := 0
	columnOffset := 0
	columnOffsetLine := 0
	var contents originalContents
	nameMapping := map[string]int{}
	var nameIndexMapping []int
	var code strings.Builder

	emit := func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
		if opts.FinalSource {
			code.WriteString(chunk)
		}
		h.Chunk(chunk, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
	}
	// columnAt translates a column of the inner stream to an output column.
	// Only the output line last touched by an edit is shifted.
	columnAt := func(line, column int) int {
		if line == columnOffsetLine {
			return column + columnOffset
		}
		return column
	}
	// shiftColumns accounts for delta skipped bytes on line.
	shiftColumns := func(line, delta int) {
		columnOffset = columnAt(line, 0) - delta
		columnOffsetLine = line
	}
	// joinLine continues line with the next inner line, which starts at inner
	// column 0, after the rest of the current one from column was dropped.
	joinLine := func(line, column int) {
		columnOffset = columnAt(line, column)
		columnOffsetLine = line
		lineOffset--
	}
	globalName := func(name string) int {
		index, ok := nameMapping[name]
		if !ok {
			index = len(nameMapping)
			nameMapping[name] = index
			h.Name(index, name)
		}
		return index
	}
	mapName := func(nameIndex int) int {
		if nameIndex < 0 || nameIndex >= len(nameIndexMapping) {
			return -1
		}
		return nameIndexMapping[nameIndex]
	}
	// emitContent writes content split into lines, starting at line and
	// generatedColumn, and advances both past it.
	emitContent := func(content string, line, generatedColumn *int, sourceIndex, originalLine, originalColumn, nameIndex int) {
		parts := lines.Split(content)
		for k, part := range parts {
			emit(part, *line, columnAt(*line, *generatedColumn), sourceIndex, originalLine, originalColumn, nameIndex)
			// Only the first line carries the name.
			nameIndex = -1
			if k == len(parts)-1 && !strings.HasSuffix(part, "\n") {
				columnOffset = columnAt(*line, 0) + len(part)
				columnOffsetLine = *line
			} else {
				// The inner line goes on at generatedColumn on a fresh
				// output line.
				lineOffset++
				*line++
				columnOffset = -*generatedColumn
				columnOffsetLine = *line
			}
		}
	}

	inner := StreamOptions{MapOptions: opts.MapOptions}
	result := r.source.StreamChunks(inner, &Handlers{
		Chunk: func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
			chunkPos := 0
			endPos := pos + len(chunk)

			// Skip over what has been replaced.
			if replacementEnd > pos {
				if replacementEnd >= endPos {
					line := generatedLine + lineOffset
					if strings.HasSuffix(chunk, "\n") {
						joinLine(line, generatedColumn)
					} else {
						shiftColumns(line, len(chunk))
					}
					pos = endPos
					return
				}
				chunkPos = replacementEnd - pos
				if contents.matches(sourceIndex, originalLine, originalColumn, chunk[:chunkPos]) {
					originalColumn += chunkPos
				}
				pos += chunkPos
				shiftColumns(generatedLine+lineOffset, chunkPos)
				generatedColumn += chunkPos
			}

			for nextReplacement < endPos {
				line := generatedLine + lineOffset
				if nextReplacement > pos {
					// Emit the chunk up to the replacement.
					offset := nextReplacement - pos
					slice := chunk[chunkPos : chunkPos+offset]
					emit(slice, line, columnAt(line, generatedColumn), sourceIndex, originalLine, originalColumn, mapName(nameIndex))
					generatedColumn += offset
					chunkPos += offset
					pos = nextReplacement
					if contents.matches(sourceIndex, originalLine, originalColumn, slice) {
						originalColumn += len(slice)
					}
				}

				repl := repls[i]
				replacementName := mapName(nameIndex)
				if repl.Name != "" {
					replacementName = globalName(repl.Name)
				}
				emitContent(repl.Content, &line, &generatedColumn, sourceIndex, originalLine, originalColumn, replacementName)

				if repl.End > replacementEnd {
					replacementEnd = repl.End
				}
				i++
				nextReplacement = math.MaxInt
				if i < len(repls) {
					nextReplacement = repls[i].Start
				}

				// Skip over what the replacement removed.
				offset := len(chunk) - endPos + replacementEnd - chunkPos
				if offset > 0 {
					if replacementEnd >= endPos {
						line := generatedLine + lineOffset
						if strings.HasSuffix(chunk, "\n") {
							joinLine(line, generatedColumn)
						} else {
							shiftColumns(line, len(chunk)-chunkPos)
						}
						pos = endPos
						return
					}
					line := generatedLine + lineOffset
					if contents.matches(sourceIndex, originalLine, originalColumn, chunk[chunkPos:chunkPos+offset]) {
						originalColumn += offset
					}
					chunkPos += offset
					pos += offset
					shiftColumns(line, offset)
					generatedColumn += offset
				}
			}

			if chunkPos < len(chunk) {
				line := generatedLine + lineOffset
				emit(chunk[chunkPos:], line, columnAt(line, generatedColumn), sourceIndex, originalLine, originalColumn, mapName(nameIndex))
			}
			pos = endPos
		},
		Source: func(sourceIndex int, source string, content null.String) {
			contents.set(sourceIndex, content)
			h.Source(sourceIndex, source, content)
		},
		Name: func(nameIndex int, name string) {
			for len(nameIndexMapping) <= nameIndex {
				nameIndexMapping = append(nameIndexMapping, -1)
			}
			nameIndexMapping[nameIndex] = globalName(name)
		},
		OriginalScope: func(scope sourcemap.OriginalScope) {
			if h.OriginalScope == nil {
				return
			}
			scope.Name = mapName(scope.Name)
			if len(scope.Variables) > 0 {
				vars := make([]int, len(scope.Variables))
				for k, v := range scope.Variables {
					vars[k] = mapName(v)
				}
				scope.Variables = vars
			}
			h.OriginalScope(scope)
		},
	})

	// Replacements past the end of the text are appended unmapped.
	var rest strings.Builder
	for ; i < len(repls); i++ {
		rest.WriteString(repls[i].Content)
	}
	line := result.GeneratedLine + lineOffset
	generatedColumn := result.GeneratedColumn
	emitContent(rest.String(), &line, &generatedColumn, -1, -1, -1, -1)

	out := StreamResult{GeneratedLine: line, GeneratedColumn: columnAt(line, generatedColumn)}
	if opts.FinalSource {
		out.Source = null.StringFrom(code.String())
	}
	return out
}
