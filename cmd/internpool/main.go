package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RowanDark/internpool/config"
	"github.com/RowanDark/internpool/logging"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// env is the per-invocation state shared by the subcommands.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	verbose bool
	cleanup []func()
}

func (e *env) Close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "internpool",
		Short: "internpool deduplicates large value streams through a shared intern pool.",
		Long: `internpool reads newline-separated values from files or stdin, interns
every value into a concurrent pool and emits each distinct value once.
Large inputs are memory-mapped and processed by a pool of workers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, err := cmd.Flags().GetBool("version")
			if err != nil {
				return err
			}
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "internpool version: %s\n", version)
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
				fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", date)
				return nil
			}
			return cmd.Help()
		},
	}

	cfg = config.BindFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("version", "V", false, "Show internpool version information and exit")

	rootCmd.AddCommand(
		newDedupCommand(cfg),
		newNamesCommand(cfg),
		newStressCommand(cfg),
	)
	return rootCmd
}

// setup applies the profile, validates cfg and builds the logger.
func setup(cmd *cobra.Command, cfg *config.Config) (*env, error) {
	if err := config.ApplyProfile(cfg, cmd); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}

	previousGC := debug.SetGCPercent(cfg.GCPercent)
	e.cleanup = append(e.cleanup, func() { debug.SetGCPercent(previousGC) })

	levelName := cfg.LogLevel
	if cfg.Verbose && !cmd.Flags().Changed("log-level") {
		levelName = "debug"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		e.Close()
		return nil, err
	}

	console := cmd.ErrOrStderr()
	if cfg.Silent {
		console = io.Discard
	}
	logger, err := logging.New(logging.Options{Level: level, Console: console, FilePath: cfg.LogFile, Component: "internpool"})
	if err != nil {
		e.Close()
		return nil, err
	}
	e.logger = logger
	e.verbose = cfg.Verbose || level <= logging.LevelDebug
	e.cleanup = append(e.cleanup, func() { _ = logger.Close() })

	if cfg.LogFile != "" {
		logger.Infof("File logging enabled: %s", cfg.LogFile)
	}
	if cfg.ConfigPath != "" {
		logger.Debugf("Configuration loaded from %s", cfg.ConfigPath)
	}
	return e, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !strings.HasSuffix(err.Error(), "help requested") {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
