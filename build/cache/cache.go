// Package cache persists the state of cached sources between runs, so that
// unchanged inputs don't have to be read, mapped and hashed again.
package cache

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/gopherjs/jssources/sources"
)

// Cacheable defines methods to serialize and deserialize cachable objects.
//
// The encode and decode functions are typically wrappers around gob.Encoder.Encode
// and gob.Decoder.Decode.
type Cacheable interface {
	Write(encode func(any) error) error
	Read(decode func(any) error) error
}

// Cache defines methods to store and load cacheable objects.
type Cache interface {
	// Store stores the object under the given key. Any error inside this
	// method will cause the cache not to be persisted.
	//
	// The passed in buildTime is used to determine if the object is
	// out-of-date when reloaded.
	Store(c Cacheable, key string, buildTime time.Time) bool

	// Load reads a previously cached object with the given key, if it was
	// stored after srcModTime.
	Load(c Cacheable, key string, srcModTime time.Time) bool
}

// Snapshot is the Cacheable form of the state of a sources.Cached.
type Snapshot struct {
	Data *sources.CachedData
}

var _ Cacheable = (*Snapshot)(nil)

func (s *Snapshot) Write(encode func(any) error) error {
	if s.Data == nil {
		return errors.New("empty snapshot")
	}
	return encode(s.Data)
}

func (s *Snapshot) Read(decode func(any) error) error {
	data := &sources.CachedData{}
	if err := decode(data); err != nil {
		return err
	}
	s.Data = data
	return nil
}

// cacheRoot is the default base path of the snapshot cache.
var cacheRoot = func() string {
	path, err := os.UserCacheDir()
	if err == nil {
		return filepath.Join(path, "jssources", "snapshots")
	}
	return filepath.Join(os.TempDir(), "jssources_snapshots")
}()

// Key returns the cache key of an input called name with the given content.
func Key(name string, content []byte) string {
	h, _ := blake2b.New256(nil)
	io.WriteString(h, name)
	h.Write([]byte{0})
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}

var _ Cache = (*SnapshotCache)(nil)

// SnapshotCache stores source snapshots in a directory.
//
// SnapshotCache is designed to be non-durable: any store and load errors are
// swallowed and simply lead to a cache miss. The caller must be able to handle
// cache misses. Nil pointer to SnapshotCache is valid and simply disables
// caching.
//
// The cached files are gzip compressed, therefore each file uses the gzip
// checksum as a basic integrity check performed after reading the file.
type SnapshotCache struct {
	// Root is the cache directory. Defaults to a directory inside the user
	// cache directory.
	Root string
	// Fs is the file system holding Root. Defaults to the OS file system.
	Fs afero.Fs
	// Version invalidates the snapshots of other versions of the producer.
	Version string
}

func (sc SnapshotCache) String() string {
	return fmt.Sprintf("SnapshotCache{Root: %q, Version: %q}", sc.root(), sc.Version)
}

func (sc *SnapshotCache) fs() afero.Fs {
	if sc.Fs == nil {
		return afero.NewOsFs()
	}
	return sc.Fs
}

func (sc *SnapshotCache) root() string {
	if sc.Root == "" {
		return cacheRoot
	}
	return sc.Root
}

// cachedPath returns a location inside the cache for a given set of key
// strings.
func (sc *SnapshotCache) cachedPath(keys ...string) string {
	key := path.Join(keys...)
	if key == "" {
		panic("cachedPath() must not be used with an empty string")
	}
	sum := fmt.Sprintf("%x", blake2b.Sum256([]byte(key)))
	return filepath.Join(sc.root(), sum[0:2], sum)
}

// snapshotKey returns the full cache key of a snapshot.
func (sc *SnapshotCache) snapshotKey(key string) string {
	return path.Join("snapshot", fmt.Sprintf("%q", sc.Version), key)
}

// Clear removes all snapshots of all versions.
func (sc *SnapshotCache) Clear() error {
	if sc == nil {
		return nil
	}
	return sc.fs().RemoveAll(sc.root())
}

func (sc *SnapshotCache) Store(c Cacheable, key string, buildTime time.Time) bool {
	if sc == nil {
		return false // Caching is disabled.
	}
	fs := sc.fs()
	start := time.Now()
	path := sc.cachedPath(sc.snapshotKey(key))
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		log.Warningf("Failed to create snapshot cache directory: %v", err)
		return false
	}
	// Write the snapshot in a temporary file first to avoid concurrency errors.
	f, err := afero.TempFile(fs, filepath.Dir(path), filepath.Base(path))
	if err != nil {
		log.Warningf("Failed to create temporary snapshot file: %v", err)
		return false
	}
	defer f.Close()
	if err := serialize(c, buildTime, f); err != nil {
		log.Warningf("Failed to write snapshot %q: %v", key, err)
		// Make sure we don't leave a half-written snapshot behind.
		f.Close()
		fs.Remove(f.Name())
		return false
	}
	f.Close()
	if err := fs.Rename(f.Name(), path); err != nil {
		log.Warningf("Failed to rename snapshot %q to %q: %v", key, path, err)
		return false
	}
	dur := time.Since(start).Round(time.Millisecond)
	log.Debugf("Stored snapshot %q as %q (%v).", key, path, dur)
	return true
}

func (sc *SnapshotCache) Load(c Cacheable, key string, srcModTime time.Time) bool {
	if sc == nil {
		return false // Caching is disabled.
	}
	start := time.Now()
	path := sc.cachedPath(sc.snapshotKey(key))
	f, err := sc.fs().Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("No snapshot for %q at %q.", key, path)
		} else {
			log.Warningf("Failed to open snapshot for %q at %q: %v", key, path, err)
		}
		return false // Cache miss.
	}
	defer f.Close()
	buildTime, old, err := deserialize(c, srcModTime, f)
	if err != nil {
		log.Warningf("Failed to read snapshot for %q at %q: %v", key, path, err)
		return false // Invalid/corrupted snapshot, cache miss.
	}
	if old {
		log.Debugf("Found out-of-date snapshot for %q, stored at %v.", key, buildTime)
		return false
	}
	dur := time.Since(start).Round(time.Millisecond)
	log.Debugf("Found snapshot for %q, stored at %v (%v).", key, buildTime, dur)
	return true
}

func serialize(c Cacheable, buildTime time.Time, w io.Writer) (err error) {
	zw := gzip.NewWriter(w)
	defer func() {
		// This close flushes the gzip but does not close the given writer.
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
	}()

	ge := gob.NewEncoder(zw)
	if err := ge.Encode(buildTime); err != nil {
		return err
	}
	return c.Write(ge.Encode)
}

func deserialize(c Cacheable, srcModTime time.Time, r io.Reader) (buildTime time.Time, old bool, err error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return buildTime, false, err
	}
	defer func() {
		// This close checks the gzip checksum but does not close the given reader.
		if closeErr := zr.Close(); err == nil {
			err = closeErr
		}
	}()

	gd := gob.NewDecoder(zr)
	if err := gd.Decode(&buildTime); err != nil {
		return buildTime, false, err
	}
	if srcModTime.After(buildTime) {
		return buildTime, true, nil // Snapshot is out-of-date, cache miss.
	}
	return buildTime, false, c.Read(gd.Decode)
}

// LoadCached restores the cached source stored under key, or wraps a fresh
// source from open when there is no usable snapshot. open is only called
// when the snapshot can't answer a request.
func LoadCached(c Cache, key string, srcModTime time.Time, open func() sources.Source) *sources.Cached {
	var s Snapshot
	if c != nil && c.Load(&s, key, srcModTime) {
		return sources.NewCachedFromData(open, s.Data)
	}
	return sources.NewCached(open())
}

// StoreCached persists the state of cs under key.
func StoreCached(c Cache, key string, cs *sources.Cached, buildTime time.Time) bool {
	if c == nil {
		return false
	}
	return c.Store(&Snapshot{Data: cs.CachedData()}, key, buildTime)
}
