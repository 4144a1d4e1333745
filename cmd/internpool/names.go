package main

import (
	"github.com/spf13/cobra"

	"github.com/RowanDark/internpool/config"
	"github.com/RowanDark/internpool/filters"
	"github.com/RowanDark/internpool/logging"
	"github.com/RowanDark/internpool/names"
)

func newNamesCommand(cfg *config.Config) *cobra.Command {
	var (
		knownPath string
		unicode   bool
	)

	cmd := &cobra.Command{
		Use:   "names [files...]",
		Short: "Canonicalise DNS names and emit each distinct name once",
		Long: `names reads DNS names, converts them to lower-case ASCII without the
trailing dot (internationalised names become A-labels), drops invalid names
and writes each distinct name once. Glob patterns given with --match treat
'.' as a separator, so "*.example.com" matches a single label.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			filter, err := filters.New(filters.Options{
				Patterns:   cfg.Match,
				MinLength:  cfg.MinLength,
				MaxLength:  cfg.MaxLength,
				Separators: []rune{'.'},
			})
			if err != nil {
				return err
			}

			logger := e.logger.With("names")
			sel := func(b []byte) []byte {
				canonical, err := names.Canonicalize(string(b))
				if err != nil {
					if logger.Enabled(logging.LevelDebug) {
						logger.Debugf("skipping: %v", err)
					}
					return nil
				}
				return []byte(canonical)
			}

			var display func(string) string
			if unicode {
				display = func(name string) string {
					out, err := names.Unicode(name)
					if err != nil {
						return name
					}
					return out
				}
			}
			return runValues(cmd, e, args, knownPath, filter, sel, display)
		},
	}
	cmd.Flags().StringVar(&knownPath, "known", "", "Previous output whose names should not be emitted again")
	cmd.Flags().BoolVar(&unicode, "unicode", false, "Include the Unicode display form of internationalised names")
	return cmd
}
