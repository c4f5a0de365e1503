package sources

import (
	"bytes"
	"io"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sourcemap"
)

// Concat joins the texts of its children.
//
// Nested Concat children are flattened when added. Adjacent strings added
// through AddString are merged into a single Raw child before the children
// are used.
type Concat struct {
	children  []Source
	optimized bool
}

var _ Source = (*Concat)(nil)

// NewConcat returns a Concat of items.
func NewConcat(items ...Source) *Concat {
	c := &Concat{optimized: true}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add appends item. The children of a Concat item are appended one by one.
func (c *Concat) Add(item Source) {
	if nested, ok := item.(*Concat); ok {
		c.children = append(c.children, nested.children...)
		if !nested.optimized {
			c.optimized = false
		}
		return
	}
	c.children = append(c.children, item)
	if r, ok := item.(*Raw); ok && r.fromMerge {
		c.optimized = false
	}
}

// AddString appends a raw text.
func (c *Concat) AddString(s string) {
	c.Add(newStringRaw(s))
}

// AddAllSkipOptimizing appends items as they are, without flattening.
func (c *Concat) AddAllSkipOptimizing(items ...Source) {
	c.children = append(c.children, items...)
}

// Children returns the children after merging adjacent strings.
func (c *Concat) Children() []Source {
	c.optimize()
	return c.children
}

func (c *Concat) optimize() {
	if c.optimized {
		return
	}
	c.optimized = true
	merged := c.children[:0:0]
	var pending []*Raw
	flush := func() {
		switch len(pending) {
		case 0:
		case 1:
			merged = append(merged, pending[0])
		default:
			var b strings.Builder
			for _, r := range pending {
				b.WriteString(r.Source())
			}
			merged = append(merged, newStringRaw(b.String()))
		}
		pending = pending[:0]
	}
	for _, child := range c.children {
		if r, ok := child.(*Raw); ok && r.fromMerge {
			pending = append(pending, r)
			continue
		}
		flush()
		merged = append(merged, child)
	}
	flush()
	c.children = merged
}

func (c *Concat) Source() string {
	c.optimize()
	var b strings.Builder
	for _, child := range c.children {
		b.WriteString(child.Source())
	}
	return b.String()
}

func (c *Concat) Buffer() []byte {
	c.optimize()
	var b bytes.Buffer
	for _, child := range c.children {
		b.Write(child.Buffer())
	}
	return b.Bytes()
}

func (c *Concat) Size() int {
	c.optimize()
	size := 0
	for _, child := range c.children {
		size += child.Size()
	}
	return size
}

func (c *Concat) Map(opts MapOptions) *sourcemap.Map { return GetMap(c, opts) }

func (c *Concat) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	return GetSourceAndMap(c, opts)
}

func (c *Concat) UpdateHash(h io.Writer) {
	c.optimize()
	writeHash(h, "ConcatSource")
	for _, child := range c.children {
		child.UpdateHash(h)
	}
}

func (c *Concat) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	c.optimize()
	if len(c.children) == 1 {
		return c.children[0].StreamChunks(opts, h)
	}

	currentLineOffset, currentColumnOffset := 0, 0
	sourceMapping := map[string]int{}
	nameMapping := map[string]int{}
	needToCloseMapping := false
	var code strings.Builder

	for _, child := range c.children {
		var sourceIndexMapping, nameIndexMapping []int
		lastMappingLine := 0
		lineOffset, columnOffset := currentLineOffset, currentColumnOffset

		mapSource := func(i int) int {
			if i < 0 || i >= len(sourceIndexMapping) {
				return -1
			}
			return sourceIndexMapping[i]
		}
		mapName := func(i int) int {
			if i < 0 || i >= len(nameIndexMapping) {
				return -1
			}
			return nameIndexMapping[i]
		}

		result := child.StreamChunks(opts, &Handlers{
			Chunk: func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
				line := generatedLine + lineOffset
				column := generatedColumn
				if generatedLine == 1 {
					column += columnOffset
				}
				if needToCloseMapping {
					if generatedLine != 1 || generatedColumn != 0 {
						h.Chunk("", lineOffset+1, columnOffset, -1, -1, -1, -1)
					}
					needToCloseMapping = false
				}
				resultSource := mapSource(sourceIndex)
				if resultSource < 0 {
					lastMappingLine = 0
					h.Chunk(chunk, line, column, -1, -1, -1, -1)
					return
				}
				lastMappingLine = generatedLine
				h.Chunk(chunk, line, column, resultSource, originalLine, originalColumn, mapName(nameIndex))
			},
			Source: func(i int, source string, content null.String) {
				global, ok := sourceMapping[source]
				if !ok {
					global = len(sourceMapping)
					sourceMapping[source] = global
					h.Source(global, source, content)
				}
				for len(sourceIndexMapping) <= i {
					sourceIndexMapping = append(sourceIndexMapping, -1)
				}
				sourceIndexMapping[i] = global
			},
			Name: func(i int, name string) {
				global, ok := nameMapping[name]
				if !ok {
					global = len(nameMapping)
					nameMapping[name] = global
					h.Name(global, name)
				}
				for len(nameIndexMapping) <= i {
					nameIndexMapping = append(nameIndexMapping, -1)
				}
				nameIndexMapping[i] = global
			},
			OriginalScope: func(scope sourcemap.OriginalScope) {
				if h.OriginalScope == nil {
					return
				}
				if scope.SourceIndex = mapSource(scope.SourceIndex); scope.SourceIndex < 0 {
					return
				}
				scope.Name = mapName(scope.Name)
				if len(scope.Variables) > 0 {
					vars := make([]int, len(scope.Variables))
					for i, v := range scope.Variables {
						vars[i] = mapName(v)
					}
					scope.Variables = vars
				}
				h.OriginalScope(scope)
			},
			GeneratedRange: func(r sourcemap.GeneratedRange) {
				if h.GeneratedRange == nil {
					return
				}
				h.GeneratedRange(shiftRange(r, lineOffset, columnOffset, mapSource, mapName))
			},
		})
		if opts.FinalSource {
			if result.Source.Valid {
				code.WriteString(result.Source.String)
			} else {
				code.WriteString(child.Source())
			}
		}
		if needToCloseMapping && (result.GeneratedLine != 1 || result.GeneratedColumn != 0) {
			h.Chunk("", currentLineOffset+1, currentColumnOffset, -1, -1, -1, -1)
			needToCloseMapping = false
		}
		if result.GeneratedLine > 1 {
			currentColumnOffset = result.GeneratedColumn
		} else {
			currentColumnOffset += result.GeneratedColumn
		}
		needToCloseMapping = needToCloseMapping || (opts.FinalSource && lastMappingLine == result.GeneratedLine)
		currentLineOffset += result.GeneratedLine - 1
	}

	result := StreamResult{GeneratedLine: currentLineOffset + 1, GeneratedColumn: currentColumnOffset}
	if opts.FinalSource {
		result.Source = null.StringFrom(code.String())
	}
	return result
}

// shiftRange moves a generated range of a child to its position in the
// parent and translates its indices.
func shiftRange(r sourcemap.GeneratedRange, lineOffset, columnOffset int, mapSource, mapName func(int) int) sourcemap.GeneratedRange {
	if r.Line == 1 {
		r.Column += columnOffset
	}
	r.Line += lineOffset
	if r.Definition != nil {
		d := *r.Definition
		d.SourceIndex = mapSource(d.SourceIndex)
		r.Definition = &d
	}
	if r.Callsite != nil {
		cs := *r.Callsite
		cs.SourceIndex = mapSource(cs.SourceIndex)
		r.Callsite = &cs
	}
	if len(r.Bindings) > 0 {
		bindings := make([]sourcemap.Binding, len(r.Bindings))
		for i, b := range r.Bindings {
			b.Expression = mapName(b.Expression)
			if len(b.Subranges) > 0 {
				subranges := make([]sourcemap.Subrange, len(b.Subranges))
				for j, s := range b.Subranges {
					s.Expression = mapName(s.Expression)
					subranges[j] = s
				}
				b.Subranges = subranges
			}
			bindings[i] = b
		}
		r.Bindings = bindings
	}
	return r
}
