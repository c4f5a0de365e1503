package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gopherjs/jssources/sources"
)

type concatOptions struct {
	Output   string
	Prefix   string
	Map      bool
	Lines    bool
	Watch    bool
	CacheDir string
}

func getConcatCmd(gs *globalState) *cobra.Command {
	opts := &concatOptions{}
	cmd := &cobra.Command{
		Use:   "concat [flags] files...",
		Short: "Concatenate files into a bundle with a combined source map",
		Long: `Concatenate files into a bundle with a combined source map.

A file with a sibling ".map" file is read as generated code described by that
map, any other file is an original source.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Map && opts.Output == "" {
				return errors.New("--map requires --output")
			}
			b := &bundler{gs: gs, opts: opts, paths: args, logger: gs.logger.WithField("cmd", "concat")}
			if err := b.build(); err != nil {
				return err
			}
			if opts.Watch {
				return b.watch(cmd.Context())
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.Output, "output", "o", "", "write the bundle to this file instead of stdout")
	flags.StringVar(&opts.Prefix, "prefix", "", "insert this text at the start of every line of the bundle")
	flags.BoolVar(&opts.Map, "map", false, "write a source map next to the output")
	flags.BoolVar(&opts.Lines, "lines", false, "map whole lines only")
	flags.BoolVar(&opts.Watch, "watch", false, "rebuild when an input changes")
	flags.StringVar(&opts.CacheDir, "cache-dir", "", "persist input snapshots in this directory (default $JSSOURCES_CACHE_DIR)")
	return cmd
}

type bundler struct {
	gs     *globalState
	opts   *concatOptions
	paths  []string
	logger logrus.FieldLogger

	// mapPaths lists the sibling maps found by the last build.
	mapPaths []string
}

// bundle composes the inputs. Inputs which don't end with a newline are
// followed by one.
func (b *bundler) bundle(inputs []*input) sources.Source {
	concat := sources.NewConcat()
	for _, in := range inputs {
		concat.Add(in.Source)
		if in.Source.Size() > 0 && !strings.HasSuffix(in.Source.Source(), "\n") {
			concat.Add(sources.NewRaw("\n"))
		}
	}
	if b.opts.Prefix != "" {
		return sources.NewPrefix(b.opts.Prefix, concat)
	}
	return concat
}

func (b *bundler) build() error {
	start := time.Now()
	c := b.gs.snapshotCache(b.opts.CacheDir)
	inputs, err := loadInputs(b.gs.fs, c, b.logger, b.paths)
	if err != nil {
		return err
	}
	b.mapPaths = b.mapPaths[:0]
	for _, in := range inputs {
		if in.MapPath != "" {
			b.mapPaths = append(b.mapPaths, in.MapPath)
		}
	}

	bundle := b.bundle(inputs)
	if err := b.write(bundle); err != nil {
		return err
	}
	storeInputs(c, inputs, start)
	b.logger.WithFields(logrus.Fields{
		"inputs":   len(inputs),
		"size":     bundle.Size(),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("Bundle written.")
	return nil
}

func (b *bundler) write(bundle sources.Source) error {
	if b.opts.Output == "" {
		_, err := fmt.Fprint(b.gs.stdout, bundle.Source())
		return err
	}

	fs := b.gs.fs
	if dir := filepath.Dir(b.opts.Output); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if !b.opts.Map {
		return afero.WriteFile(fs, b.opts.Output, bundle.Buffer(), 0o644)
	}

	code, m := bundle.SourceAndMap(sources.MapOptions{LinesOnly: b.opts.Lines})
	if m == nil {
		b.logger.Warn("The inputs carry no mappings, no source map written.")
		return afero.WriteFile(fs, b.opts.Output, []byte(code), 0o644)
	}
	m.File = filepath.Base(b.opts.Output)

	codeFile, err := fs.Create(b.opts.Output)
	if err != nil {
		return err
	}
	defer codeFile.Close()
	mapFile, err := fs.Create(b.opts.Output + ".map")
	if err != nil {
		return err
	}
	defer mapFile.Close()

	if _, err := codeFile.WriteString(code); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(codeFile, "//# sourceMappingURL=%s.map\n", filepath.Base(b.opts.Output)); err != nil {
		return err
	}
	if _, err := m.WriteTo(mapFile); err != nil {
		return err
	}
	if err := codeFile.Close(); err != nil {
		return err
	}
	return mapFile.Close()
}

// watch rebuilds the bundle whenever an input or one of its maps changes,
// until ctx is done. Failed rebuilds are logged and don't stop watching.
func (b *bundler) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	add := func(paths ...string) {
		for _, path := range paths {
			if watched[path] {
				continue
			}
			if err := watcher.Add(path); err != nil {
				b.logger.WithError(err).Warnf("Can't watch %s.", path)
				continue
			}
			watched[path] = true
		}
	}
	add(b.paths...)
	add(b.mapPaths...)
	b.logger.Infof("Watching %d files for changes.", len(watched))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.WithError(err).Warn("Watcher error.")
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				// Editors replacing the file drop it from the watch list.
				delete(watched, ev.Name)
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			b.logger.Infof("Change detected in %s, rebuilding.", ev.Name)
			if err := b.build(); err != nil {
				b.logger.WithError(err).Error("Rebuild failed.")
				continue
			}
			add(b.paths...)
			add(b.mapPaths...)
		}
	}
}
