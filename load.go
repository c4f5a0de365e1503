package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/gopherjs/jssources/build/cache"
	"github.com/gopherjs/jssources/internal/errorList"
	"github.com/gopherjs/jssources/sourcemap"
	"github.com/gopherjs/jssources/sources"
)

// maxReportedErrors limits the number of load errors reported at once.
const maxReportedErrors = 10

// input is a file read from the command line, memoized behind a Cached
// source.
type input struct {
	Path    string
	MapPath string // Empty when the file has no sibling map.
	Key     string
	ModTime time.Time
	Source  *sources.Cached
}

// readMap reads and decodes a source map file.
func readMap(fs afero.Fs, path string) (*sourcemap.Map, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := sourcemap.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// loadInput reads the file at path. A sibling file path+".map" turns it into
// a SourceMapSource, otherwise it is an Original. A snapshot from c is used
// when there is a fresh one.
func loadInput(fs afero.Fs, c cache.Cache, logger logrus.FieldLogger, path string) (*input, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	stat, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	in := &input{Path: path, ModTime: stat.ModTime()}

	keyed := content
	var mapData []byte
	mapPath := path + ".map"
	switch stat, err := fs.Stat(mapPath); {
	case err == nil:
		mapData, err = afero.ReadFile(fs, mapPath)
		if err != nil {
			return nil, err
		}
		in.MapPath = mapPath
		if stat.ModTime().After(in.ModTime) {
			in.ModTime = stat.ModTime()
		}
		keyed = append(append(append([]byte{}, content...), 0), mapData...)
	case !os.IsNotExist(err):
		return nil, err
	}
	in.Key = cache.Key(path, keyed)

	var m *sourcemap.Map
	if mapData != nil {
		if m, err = sourcemap.Parse(mapData); err != nil {
			return nil, fmt.Errorf("%s: %w", mapPath, err)
		}
	}
	open := func() sources.Source {
		logger.WithField("file", path).Debug("Reading source.")
		if m != nil {
			return sources.NewSourceMapSourceBuffer(content, path, m)
		}
		return sources.NewOriginalBuffer(content, path)
	}
	in.Source = cache.LoadCached(c, in.Key, in.ModTime, open)
	return in, nil
}

// loadInputs loads all paths concurrently. Every failure is reported, not
// only the first one.
func loadInputs(fs afero.Fs, c cache.Cache, logger logrus.FieldLogger, paths []string) ([]*input, error) {
	inputs := make([]*input, len(paths))
	errs := make([]error, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			inputs[i], errs[i] = loadInput(fs, c, logger, path)
			return nil
		})
	}
	g.Wait()

	var list errorList.ErrorList
	for i, err := range errs {
		if err != nil {
			list = list.AppendDistinct(fmt.Errorf("failed to load %s: %w", paths[i], err))
		}
	}
	if err := list.Trim(maxReportedErrors).ErrOrNil(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// storeInputs persists the state of the inputs in c.
func storeInputs(c cache.Cache, inputs []*input, buildTime time.Time) {
	for _, in := range inputs {
		cache.StoreCached(c, in.Key, in.Source, buildTime)
	}
}
