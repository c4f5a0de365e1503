package main

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/sources"
)

func getComposeCmd(gs *globalState) *cobra.Command {
	var (
		name           string
		removeOriginal bool
		lines          bool
		output         string
	)
	cmd := &cobra.Command{
		Use:   "compose [flags] generated outer.map middle inner.map",
		Short: "Fuse the maps of two consecutive transformations",
		Long: `Fuse the maps of two consecutive transformations.

outer.map describes generated in terms of middle (among other sources), and
inner.map describes middle in terms of the original sources. The result
describes generated in terms of the original sources.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := gs.fs
			generated, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}
			outer, err := readMap(fs, args[1])
			if err != nil {
				return err
			}
			middle, err := afero.ReadFile(fs, args[2])
			if err != nil {
				return err
			}
			inner, err := readMap(fs, args[3])
			if err != nil {
				return err
			}
			if name == "" {
				name = args[2]
			}

			s := sources.NewComposedSource(string(generated), name, outer, sources.Inner{
				Source:       null.StringFrom(string(middle)),
				Map:          inner,
				RemoveSource: removeOriginal,
			})
			m := s.Map(sources.MapOptions{LinesOnly: lines})
			if m == nil {
				return errors.New("the composed map has no mappings")
			}
			m.File = outer.File
			gs.logger.WithField("cmd", "compose").Debugf("Composed %d sources.", len(m.Sources))

			if output == "" {
				if _, err := m.WriteTo(gs.stdout); err != nil {
					return err
				}
				_, err = fmt.Fprintln(gs.stdout)
				return err
			}
			data, err := m.JSON()
			if err != nil {
				return err
			}
			return afero.WriteFile(fs, output, data, 0o644)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "name of middle among the sources of outer.map (default: the middle path)")
	flags.BoolVar(&removeOriginal, "remove-original", false, "drop middle from the composed map")
	flags.BoolVar(&lines, "lines", false, "map whole lines only")
	flags.StringVarP(&output, "output", "o", "", "write the map to this file instead of stdout")
	return cmd
}
