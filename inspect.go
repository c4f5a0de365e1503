package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sourcemap"
	"github.com/gopherjs/jssources/sources"
)

func getMappingsCmd(gs *globalState) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings file.map [generated]",
		Short: "Print the mappings of a source map",
		Long: `Print the mappings of a source map, one generated line per output line.

When the generated file is given, every mapped chunk is printed together with
its text instead.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMap(gs.fs, args[0])
			if err != nil {
				return err
			}
			if len(args) == 1 {
				_, err := fmt.Fprintln(gs.stdout, m.Readable())
				return err
			}

			generated, err := afero.ReadFile(gs.fs, args[1])
			if err != nil {
				return err
			}
			names := map[int]string{}
			srcs := map[int]string{}
			s := sources.NewSourceMapSourceBuffer(generated, args[1], m)
			s.StreamChunks(sources.StreamOptions{}, &sources.Handlers{
				Chunk: func(chunk string, generatedLine, generatedColumn, sourceIndex, originalLine, originalColumn, nameIndex int) {
					fmt.Fprintf(gs.stdout, "%d:%d %q", generatedLine, generatedColumn, chunk)
					if sourceIndex >= 0 {
						fmt.Fprintf(gs.stdout, " -> [%s] %d:%d", srcs[sourceIndex], originalLine, originalColumn)
					}
					if nameIndex >= 0 {
						fmt.Fprintf(gs.stdout, " (%s)", names[nameIndex])
					}
					fmt.Fprintln(gs.stdout)
				},
				Source: func(i int, source string, _ null.String) { srcs[i] = source },
				Name:   func(i int, name string) { names[i] = name },
			})
			return nil
		},
	}
}

// parsePosition parses a "LINE:COLUMN" generated position.
func parsePosition(s string) (line, column int, err error) {
	l, c, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid position %q, want LINE:COLUMN", s)
	}
	if line, err = strconv.Atoi(l); err != nil || line < 1 {
		return 0, 0, fmt.Errorf("invalid line in %q", s)
	}
	if column, err = strconv.Atoi(c); err != nil || column < 0 {
		return 0, 0, fmt.Errorf("invalid column in %q", s)
	}
	return line, column, nil
}

func getLookupCmd(gs *globalState) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup file.map LINE:COLUMN",
		Short: "Resolve a generated position to its original position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, column, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			m, err := readMap(gs.fs, args[0])
			if err != nil {
				return err
			}
			c, err := sourcemap.NewConsumer(args[0], m)
			if err != nil {
				return err
			}
			pos, ok := c.Lookup(line, column)
			if !ok {
				return fmt.Errorf("no mapping at %d:%d", line, column)
			}
			fmt.Fprintf(gs.stdout, "%s:%d:%d", pos.Source, pos.Line, pos.Column)
			if pos.Name != "" {
				fmt.Fprintf(gs.stdout, " (%s)", pos.Name)
			}
			_, err = fmt.Fprintln(gs.stdout)
			return err
		},
	}
}

func getHashCmd(gs *globalState) *cobra.Command {
	return &cobra.Command{
		Use:   "hash files...",
		Short: "Print the identity digest of each input",
		Long: `Print the BLAKE2b-256 digest of the identity of each input. Inputs are read
the same way concat reads them, so a file with a sibling ".map" file hashes
differently from the same file without one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := loadInputs(gs.fs, nil, gs.logger.WithField("cmd", "hash"), args)
			if err != nil {
				return err
			}
			for _, in := range inputs {
				h, err := blake2b.New256(nil)
				if err != nil {
					return err
				}
				in.Source.UpdateHash(h)
				fmt.Fprintf(gs.stdout, "%x  %s\n", h.Sum(nil), in.Path)
			}
			return nil
		},
	}
}
