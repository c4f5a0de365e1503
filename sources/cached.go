package sources

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/gopherjs/jssources/internal/policy"
	"github.com/gopherjs/jssources/sourcemap"
)

// hashChunkLimit is the size below which consecutive hash writes are
// recorded as a single item.
const hashChunkLimit = 10240

// CachedKind tells whether and how the buffer of a CachedData was obtained.
// The kind, not the buffer, records that a buffer is known: encoders such as
// encoding/gob drop empty slices.
type CachedKind int

const (
	// CachedNone means no buffer was computed.
	CachedNone CachedKind = iota
	// CachedBytes buffers hold the result of Buffer. They only serve Buffer
	// and Size requests.
	CachedBytes
	// CachedText buffers hold the result of Source.
	CachedText
)

// CachedData is a self-contained snapshot of the state of a Cached source.
// It holds no reference to the wrapped source and can be encoded with
// encoding/gob.
type CachedData struct {
	Buffer    []byte
	Kind      CachedKind
	Size      int
	SizeKnown bool
	// Maps holds JSON encoded maps by MapOptions.Key. "null" records a
	// source without a map.
	Maps      map[string][]byte
	Hash      [][]byte
	HashKnown bool
}

type cachedMap struct {
	m       *sourcemap.Map
	decoded bool
	encoded []byte
}

// Cached memoizes the results of another source. Every kind of request is
// forwarded to the wrapped source at most once per distinct MapOptions.
//
// Cached is not safe for concurrent use.
type Cached struct {
	original Source
	factory  func() Source

	text    string
	hasText bool
	buffer  []byte
	kind    CachedKind
	size    int
	hasSize bool
	maps    map[string]*cachedMap
	hash    [][]byte
	hasHash bool
}

var _ Source = (*Cached)(nil)

// NewCached returns a Cached wrapping original.
func NewCached(original Source) *Cached {
	return &Cached{original: original, maps: map[string]*cachedMap{}}
}

// NewCachedFromData restores a Cached from a snapshot. original is called at
// most once, and only for requests the snapshot can't answer. It may be nil
// when all requests are known to be covered.
func NewCachedFromData(original func() Source, data *CachedData) *Cached {
	c := &Cached{factory: original, maps: map[string]*cachedMap{}}
	if data == nil {
		return c
	}
	c.buffer = data.Buffer
	c.kind = data.Kind
	if c.kind != CachedNone && c.buffer == nil {
		c.buffer = []byte{}
	}
	c.size, c.hasSize = data.Size, data.SizeKnown
	for key, encoded := range data.Maps {
		c.maps[key] = &cachedMap{encoded: encoded}
	}
	c.hash, c.hasHash = data.Hash, data.HashKnown
	return c
}

// Original returns the wrapped source, creating it if needed.
func (c *Cached) Original() Source {
	if c.original == nil {
		if c.factory == nil {
			panic(fmt.Errorf("cached source: %w: request not covered by the cached data", ErrContentUnavailable))
		}
		c.original = c.factory()
		c.factory = nil
	}
	return c.original
}

// CachedData returns a snapshot of everything computed so far.
func (c *Cached) CachedData() *CachedData {
	data := &CachedData{
		Buffer:    c.buffer,
		Kind:      CachedNone,
		Size:      c.size,
		SizeKnown: c.hasSize,
		Hash:      c.hash,
		HashKnown: c.hasHash,
	}
	switch {
	case c.hasText:
		data.Buffer = c.Buffer()
		data.Kind = CachedText
	case c.buffer != nil && c.kind == CachedText:
		data.Kind = CachedText
	case c.buffer != nil:
		data.Kind = CachedBytes
	}
	if len(c.maps) > 0 {
		data.Maps = make(map[string][]byte, len(c.maps))
		for key, entry := range c.maps {
			if entry.encoded == nil {
				entry.encoded = encodeMap(entry.m)
			}
			data.Maps[key] = entry.encoded
		}
	}
	return data
}

// cachedSource returns the text if it is known without asking the original.
func (c *Cached) cachedSource() (string, bool) {
	if c.hasText {
		return c.text, true
	}
	if c.buffer != nil && c.kind == CachedText {
		text := string(c.buffer)
		if policy.DualBufferCaching() {
			c.text, c.hasText = text, true
		}
		return text, true
	}
	return "", false
}

func (c *Cached) Source() string {
	if text, ok := c.cachedSource(); ok {
		return text
	}
	c.text, c.hasText = c.Original().Source(), true
	return c.text
}

func (c *Cached) Buffer() []byte {
	if c.buffer != nil {
		return c.buffer
	}
	if c.hasText {
		b := []byte(c.text)
		if policy.DualBufferCaching() {
			c.buffer = b
		}
		return b
	}
	c.buffer = c.Original().Buffer()
	return c.buffer
}

func (c *Cached) Size() int {
	switch {
	case c.hasSize:
	case c.buffer != nil:
		c.size = len(c.buffer)
	case c.hasText:
		c.size = len(c.text)
	default:
		c.size = c.Original().Size()
	}
	c.hasSize = true
	return c.size
}

func (c *Cached) cachedMap(key string) (*sourcemap.Map, bool) {
	entry, ok := c.maps[key]
	if !ok {
		return nil, false
	}
	if !entry.decoded {
		if string(entry.encoded) != "null" {
			m, err := sourcemap.Parse(entry.encoded)
			if err != nil {
				log.WithError(err).WithField("options", key).Warn("Dropping unreadable cached source map.")
				delete(c.maps, key)
				return nil, false
			}
			entry.m = m
		}
		entry.decoded = true
	}
	return entry.m, true
}

func (c *Cached) storeMap(key string, m *sourcemap.Map) {
	c.maps[key] = &cachedMap{m: m, decoded: true}
}

func (c *Cached) Map(opts MapOptions) *sourcemap.Map {
	key := opts.Key()
	if m, ok := c.cachedMap(key); ok {
		return m
	}
	m := c.Original().Map(opts)
	c.storeMap(key, m)
	return m
}

func (c *Cached) SourceAndMap(opts MapOptions) (string, *sourcemap.Map) {
	key := opts.Key()
	if m, ok := c.cachedMap(key); ok {
		return c.Source(), m
	}
	text, ok := c.cachedSource()
	var m *sourcemap.Map
	if ok {
		m = c.Original().Map(opts)
	} else {
		text, m = c.Original().SourceAndMap(opts)
		c.text, c.hasText = text, true
	}
	c.storeMap(key, m)
	return text, m
}

func (c *Cached) StreamChunks(opts StreamOptions, h *Handlers) StreamResult {
	key := opts.Key()
	if _, ok := c.maps[key]; ok {
		if _, ok := c.cachedSource(); ok {
			text, m := c.SourceAndMap(opts.MapOptions)
			return streamChunksOfSourceMap(text, m, h, opts.FinalSource)
		}
	}
	result, text, m := streamAndGetSourceAndMap(c.Original(), opts, h)
	c.text, c.hasText = text, true
	c.storeMap(key, m)
	return result
}

// hashRecorder records the writes of UpdateHash, merging small ones.
type hashRecorder struct {
	items   [][]byte
	pending []byte
}

func (r *hashRecorder) Write(p []byte) (int, error) {
	if len(p) < hashChunkLimit {
		r.pending = append(r.pending, p...)
		return len(p), nil
	}
	r.flush()
	r.items = append(r.items, append([]byte(nil), p...))
	return len(p), nil
}

func (r *hashRecorder) flush() {
	if r.pending != nil {
		r.items = append(r.items, r.pending)
		r.pending = nil
	}
}

func (c *Cached) UpdateHash(h io.Writer) {
	if !c.hasHash {
		var r hashRecorder
		c.Original().UpdateHash(&r)
		r.flush()
		c.hash, c.hasHash = r.items, true
	}
	for _, item := range c.hash {
		h.Write(item)
	}
}
