package sources

import (
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/internal/lines"
	"github.com/gopherjs/jssources/sourcemap"
)

// innerLine holds the mappings of one generated line of the inner map, five
// ints per mapping: generated column, source, original line, original column
// and name.
type innerLine struct {
	mappings []int
	chunks   []string
}

// innerSourceInfo describes a source of the inner map.
type innerSourceInfo struct {
	name    string
	content null.String
	lines   []string
	split   bool
	global  int // index in the output, -1 until first used
}

func (s *innerSourceInfo) contentLines() []string {
	if !s.split {
		s.split = true
		if s.content.Valid && s.content.String != "" {
			s.lines = lines.Split(s.content.String)
		}
	}
	return s.lines
}

// outerSourceInfo describes a source of the outer map.
type outerSourceInfo struct {
	name    string
	content null.String
	global  int // index in the output, -1 until first used
	removed bool
}

// combiner composes an outer map with the map of one of its sources.
type combiner struct {
	h *Handlers

	sourceMapping map[string]int
	nameMapping   map[string]int

	sources          []outerSourceInfo
	nameIndexMapping []int
	names            []string

	innerSourceIndex int
	innerSources     []innerSourceInfo
	innerNames       []string
	innerNameMapping []int
	innerLines       []innerLine
}

func (c *combiner) globalSource(source string, content null.String) int {
	index, ok := c.sourceMapping[source]
	if !ok {
		index = len(c.sourceMapping)
		c.sourceMapping[source] = index
		c.h.Source(index, source, content)
	}
	return index
}

func (c *combiner) globalName(name string) int {
	index, ok := c.nameMapping[name]
	if !ok {
		index = len(c.nameMapping)
		c.nameMapping[name] = index
		c.h.Name(index, name)
	}
	return index
}

// outerSource returns the output index of source i of the outer map.
func (c *combiner) outerSource(i int) int {
	if i < 0 || i >= len(c.sources) || c.sources[i].removed {
		return -1
	}
	if c.sources[i].global < 0 {
		c.sources[i].global = c.globalSource(c.sources[i].name, c.sources[i].content)
	}
	return c.sources[i].global
}

// outerName returns the output index of name i of the outer map.
func (c *combiner) outerName(i int) int {
	if i < 0 || i >= len(c.names) {
		return -1
	}
	if c.nameIndexMapping[i] < 0 {
		c.nameIndexMapping[i] = c.globalName(c.names[i])
	}
	return c.nameIndexMapping[i]
}

// findInnerMapping returns the index of the last inner mapping on line
// starting at or before column, or -1.
func (c *combiner) findInnerMapping(line, column int) int {
	if line < 1 || line > len(c.innerLines) {
		return -1
	}
	mappings := c.innerLines[line-1].mappings
	l, r := 0, len(mappings)/5
	for l < r {
		m := (l + r) >> 1
		if mappings[m*5] <= column {
			l = m + 1
		} else {
			r = m
		}
	}
	return l - 1
}

// innerChunk translates an outer chunk pointing into the inner source. It
// reports false when the inner map has no mapping for the chunk.
func (c *combiner) innerChunk(chunk string, generatedLine, generatedColumn, originalLine, originalColumn, nameIndex int) bool {
	idx := c.findInnerMapping(originalLine, originalColumn)
	if idx < 0 {
		return false
	}
	data := c.innerLines[originalLine-1]
	mi := idx * 5
	innerSource := data.mappings[mi+1]
	innerOriginalLine := data.mappings[mi+2]
	innerOriginalColumn := data.mappings[mi+3]
	innerName := data.mappings[mi+4]
	if innerSource < 0 || innerSource >= len(c.innerSources) {
		return false
	}
	info := &c.innerSources[innerSource]

	// An identity mapping allows to move the original column.
	if offset := originalColumn - data.mappings[mi]; offset > 0 {
		if ls := info.contentLines(); ls != nil {
			var original string
			if innerOriginalLine >= 1 && innerOriginalLine <= len(ls) {
				original = lines.Slice(ls[innerOriginalLine-1], innerOriginalColumn, innerOriginalColumn+offset)
			}
			if lines.Slice(data.chunks[idx], 0, offset) == original {
				innerOriginalColumn += offset
				innerName = -1
			}
		}
	}

	if info.global < 0 {
		info.global = c.globalSource(info.name, info.content)
	}

	finalName := -1
	switch {
	case innerName >= 0 && innerName < len(c.innerNames):
		if c.innerNameMapping[innerName] < 0 {
			c.innerNameMapping[innerName] = c.globalName(c.innerNames[innerName])
		}
		finalName = c.innerNameMapping[innerName]
	case nameIndex >= 0 && nameIndex < len(c.names):
		// The outer name survives when the inner original text spells it.
		name := c.names[nameIndex]
		var original string
		if ls := info.contentLines(); innerOriginalLine >= 1 && innerOriginalLine <= len(ls) {
			original = lines.Slice(ls[innerOriginalLine-1], innerOriginalColumn, innerOriginalColumn+len(name))
		}
		if name == original {
			finalName = c.outerName(nameIndex)
		}
	}
	c.h.Chunk(chunk, generatedLine, generatedColumn, info.global, innerOriginalLine, innerOriginalColumn, finalName)
	return true
}

// streamChunksOfCombinedSourceMap streams source with the map m, where the
// mappings into the source named innerSourceName are further translated
// through inner. innerSource is the text inner describes, it defaults to the
// content m carries for innerSourceName. With removeInnerSource, positions in
// the inner source that inner can't translate become unmapped and the inner
// source is left out of the output.
func streamChunksOfCombinedSourceMap(source string, m *sourcemap.Map, innerSourceName string, innerSource null.String, inner *sourcemap.Map, removeInnerSource bool, h *Handlers, finalSource bool) StreamResult {
	c := &combiner{
		h:                h,
		sourceMapping:    map[string]int{},
		nameMapping:      map[string]int{},
		innerSourceIndex: -2,
	}

	return streamChunksOfSourceMap(source, m, &Handlers{
		Chunk: func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
			if sourceIndex == c.innerSourceIndex {
				if c.innerChunk(chunk, generatedLine, generatedColumn, originalLine, originalColumn, nameIndex) {
					return
				}
				if removeInnerSource {
					h.Chunk(chunk, generatedLine, generatedColumn, -1, -1, -1, -1)
					return
				}
			}
			globalSource := c.outerSource(sourceIndex)
			if globalSource < 0 {
				h.Chunk(chunk, generatedLine, generatedColumn, -1, -1, -1, -1)
				return
			}
			h.Chunk(chunk, generatedLine, generatedColumn, globalSource, originalLine, originalColumn, c.outerName(nameIndex))
		},
		Source: func(i int, name string, content null.String) {
			for len(c.sources) <= i {
				c.sources = append(c.sources, outerSourceInfo{global: -1, removed: true})
			}
			info := outerSourceInfo{name: name, content: content, global: -1}
			if name == innerSourceName {
				c.innerSourceIndex = i
				if innerSource.Valid {
					info.content = innerSource
				}
				c.loadInner(name, info.content, inner)
				info.removed = removeInnerSource
			}
			c.sources[i] = info
		},
		Name: func(i int, name string) {
			for len(c.names) <= i {
				c.names = append(c.names, "")
				c.nameIndexMapping = append(c.nameIndexMapping, -1)
			}
			c.names[i] = name
			c.nameIndexMapping[i] = -1
		},
	}, finalSource)
}

// loadInner indexes the mappings of inner by generated line.
func (c *combiner) loadInner(name string, content null.String, inner *sourcemap.Map) {
	if !content.Valid {
		log.WithField("source", name).Debug("No content for the inner source, its map is not applied.")
		return
	}
	streamChunksOfSourceMap(content.String, inner, &Handlers{
		Chunk: func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
			for len(c.innerLines) < generatedLine {
				c.innerLines = append(c.innerLines, innerLine{})
			}
			data := &c.innerLines[generatedLine-1]
			data.mappings = append(data.mappings, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex)
			data.chunks = append(data.chunks, chunk)
		},
		Source: func(i int, source string, content null.String) {
			for len(c.innerSources) <= i {
				c.innerSources = append(c.innerSources, innerSourceInfo{global: -1})
			}
			c.innerSources[i] = innerSourceInfo{name: source, content: content, global: -1}
		},
		Name: func(i int, name string) {
			for len(c.innerNames) <= i {
				c.innerNames = append(c.innerNames, "")
				c.innerNameMapping = append(c.innerNameMapping, -1)
			}
			c.innerNames[i] = name
			c.innerNameMapping[i] = -1
		},
	}, false)
}
