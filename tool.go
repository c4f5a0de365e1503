package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"

	"github.com/gopherjs/jssources/build/cache"
	"github.com/gopherjs/jssources/internal/errorList"
	"github.com/gopherjs/jssources/internal/policy"
)

// Version is the version of the snapshot format written by this tool.
const Version = "1"

// envConfig is the part of the configuration read from the environment.
type envConfig struct {
	CacheDir null.String `envconfig:"JSSOURCES_CACHE_DIR"`
	LogLevel null.String `envconfig:"JSSOURCES_LOG_LEVEL"`
	Policy   null.String `envconfig:"JSSOURCES_POLICY"`
}

// globalState is shared by all commands of a single invocation.
type globalState struct {
	fs        afero.Fs
	stdout    io.Writer
	logger    *logrus.Logger
	lookupEnv func(key string) (string, bool)

	env     envConfig
	verbose bool
	restore func()
}

// newGlobalState resets and takes over the standard logrus logger, which the
// sources and build/cache packages log through.
func newGlobalState(fs afero.Fs, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) *globalState {
	logger := logrus.StandardLogger()
	logger.SetOutput(stderr)
	logger.SetFormatter(new(logrus.TextFormatter))
	logger.SetLevel(logrus.InfoLevel)
	return &globalState{
		fs:        fs,
		stdout:    stdout,
		logger:    logger,
		lookupEnv: lookupEnv,
	}
}

// snapshotCache returns the snapshot store selected by the flag value dir or
// the environment, nil when caching is off.
func (gs *globalState) snapshotCache(dir string) cache.Cache {
	if dir == "" {
		dir = gs.env.CacheDir.String
	}
	if dir == "" {
		return nil
	}
	return &cache.SnapshotCache{Root: dir, Fs: gs.fs, Version: Version}
}

func (gs *globalState) persistentPreRunE(cmd *cobra.Command, args []string) error {
	if err := envconfig.Process("", &gs.env, gs.lookupEnv); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if gs.env.LogLevel.Valid {
		level, err := logrus.ParseLevel(gs.env.LogLevel.String)
		if err != nil {
			return fmt.Errorf("invalid JSSOURCES_LOG_LEVEL: %w", err)
		}
		gs.logger.SetLevel(level)
	}
	if gs.verbose {
		gs.logger.SetLevel(logrus.DebugLevel)
	}

	flags, err := policy.Parse(gs.env.Policy.String)
	if err != nil {
		return fmt.Errorf("invalid JSSOURCES_POLICY: %w", err)
	}
	gs.restore = policy.Apply(flags)
	gs.logger.WithField("policy", fmt.Sprintf("%+v", flags)).Debug("Policy applied.")
	return nil
}

func (gs *globalState) persistentPostRun(cmd *cobra.Command, args []string) {
	if gs.restore != nil {
		gs.restore()
		gs.restore = nil
	}
}

func (gs *globalState) persistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.BoolVarP(&gs.verbose, "verbose", "v", false, "print debug logs")
	return flags
}

func newRootCommand(gs *globalState) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "jssources",
		Short:             "Concatenate, compose and inspect source-mapped files",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: gs.persistentPreRunE,
		PersistentPostRun: gs.persistentPostRun,
	}
	cmd.PersistentFlags().AddFlagSet(gs.persistentFlagSet())
	cmd.AddCommand(
		getConcatCmd(gs),
		getComposeCmd(gs),
		getMappingsCmd(gs),
		getLookupCmd(gs),
		getHashCmd(gs),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gs := newGlobalState(afero.NewOsFs(), os.Stdout, os.Stderr, os.LookupEnv)
	err := newRootCommand(gs).ExecuteContext(ctx)
	switch err := err.(type) {
	case nil:
		return
	case errorList.ErrorList:
		for _, entry := range err {
			fmt.Fprintln(os.Stderr, entry)
		}
	default:
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
	}
	stop()
	os.Exit(1)
}
