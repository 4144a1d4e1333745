package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RowanDark/internpool/config"
	"github.com/RowanDark/internpool/filters"
	"github.com/RowanDark/internpool/internal/input"
	"github.com/RowanDark/internpool/output"
	"github.com/RowanDark/internpool/pool"
)

func newDedupCommand(cfg *config.Config) *cobra.Command {
	var knownPath string

	cmd := &cobra.Command{
		Use:   "dedup [files...]",
		Short: "Emit every distinct line once, with occurrence counts",
		Long: `dedup reads values from the given files (or stdin) and writes each
distinct value once, in order of first appearance. Files larger than 10 MiB
are memory-mapped. Use --match and the length limits to select values and
--known to suppress values already present in an earlier run's output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			filter, err := filters.New(filters.Options{
				Patterns:  cfg.Match,
				MinLength: cfg.MinLength,
				MaxLength: cfg.MaxLength,
			})
			if err != nil {
				return err
			}

			return runValues(cmd, e, args, knownPath, filter, func(b []byte) []byte { return b }, nil)
		},
	}
	cmd.Flags().StringVar(&knownPath, "known", "", "Previous output whose values should not be emitted again")
	return cmd
}

// runValues wires a selector into a pipeline and runs it over args.
func runValues(cmd *cobra.Command, e *env, args []string, knownPath string, filter *filters.Filter, sel selector, display func(string) string) error {
	stdin := cmd.InOrStdin()
	if len(args) == 0 && input.IsTerminal(stdin) {
		e.logger.Warnf("No input files given and stdin is a terminal. Pass files or pipe values via stdin.")
		if !e.verbose {
			_ = cmd.Help()
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pool.New(pool.WithName(cmd.Name()), pool.WithLogger(e.logger))
	pl := newPipeline(e, p, filter, sel)
	pl.display = display
	if knownPath != "" {
		if err := pl.loadKnown(knownPath); err != nil {
			return err
		}
	}
	if patterns := filter.Patterns(); len(patterns) > 0 {
		e.logger.Debugf("Selecting values matching %v", patterns)
	}

	writer, err := output.NewWriter(e.cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	runErr := pl.run(ctx, args, stdin, writer)
	closeErr := writer.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}
