package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Format represents an output format option.
type Format string

// Supported output format options.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("invalid configuration")

// EnvLogLevel names the environment variable consulted when no log level is
// given on the command line or in a profile.
const EnvLogLevel = "INTERNPOOL_LOG_LEVEL"

// Config captures all runtime configuration for the CLI.
type Config struct {
	ConfigPath string
	Profile    string

	OutputPath string
	Format     Format
	JSONPretty bool

	Verbose  bool
	Silent   bool
	LogLevel string
	LogFile  string

	Workers   int
	GCPercent int

	Match     []string
	MinLength int
	MaxLength int

	StatsInterval time.Duration
	SweepInterval time.Duration
	SweepRate     float64
}

// BindFlags registers the shared command-line flags and returns a Config
// instance whose fields are populated when Cobra parses flag values.
func BindFlags(cmd *cobra.Command) *Config {
	cfg := &Config{}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigPath, "config", "", "Path to a configuration file (defaults to ./.internpool.yaml or ~/.internpool.yaml)")
	flags.StringVar(&cfg.Profile, "profile", "", "Named profile to load from the configuration file")
	flags.StringVarP(&cfg.OutputPath, "output", "o", "", "Optional file path to write results")
	flags.StringVar((*string)(&cfg.Format), "format", string(FormatTXT), "Output format (txt, json, csv)")
	flags.BoolVar(&cfg.JSONPretty, "json-pretty", false, "Indent JSON output")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging output")
	flags.BoolVar(&cfg.Silent, "silent", false, "Suppress console logging")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", "", "Also write logs to this file")
	flags.IntVarP(&cfg.Workers, "workers", "w", runtime.GOMAXPROCS(0), "Number of interning workers")
	flags.IntVar(&cfg.GCPercent, "gc-percent", 100, "Go garbage collector target percentage")
	flags.StringSliceVar(&cfg.Match, "match", nil, "Only keep values matching one of these glob patterns")
	flags.IntVar(&cfg.MinLength, "min-length", 0, "Drop values shorter than this many bytes")
	flags.IntVar(&cfg.MaxLength, "max-length", 0, "Drop values longer than this many bytes (0 for no limit)")
	flags.DurationVar(&cfg.StatsInterval, "stats-interval", 0, "Log progress statistics at this interval (0 disables)")
	flags.DurationVar(&cfg.SweepInterval, "sweep-interval", 0, "Sweep the pools at this interval while running (0 disables)")
	flags.Float64Var(&cfg.SweepRate, "sweep-rate", 0, "Maximum sweeps per second (0 for no limit)")

	return cfg
}

// Validate ensures the provided configuration values meet the expected
// constraints and normalises their representation where required.
func (c *Config) Validate() error {
	format := strings.ToLower(strings.TrimSpace(string(c.Format)))
	switch Format(format) {
	case FormatJSON, FormatCSV, FormatTXT:
		c.Format = Format(format)
	case "":
		c.Format = FormatTXT
	default:
		return fmt.Errorf("%w: output format %q: expected txt, json, or csv", ErrInvalid, c.Format)
	}

	if c.Silent && c.Verbose {
		return fmt.Errorf("%w: --silent and --verbose cannot be used together", ErrInvalid)
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel)))
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogFile = strings.TrimSpace(c.LogFile)
	c.OutputPath = strings.TrimSpace(c.OutputPath)

	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.GCPercent == 0 {
		c.GCPercent = 100
	}

	if len(c.Match) > 0 {
		filtered := make([]string, 0, len(c.Match))
		for _, pattern := range c.Match {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" {
				continue
			}
			filtered = append(filtered, pattern)
		}
		c.Match = filtered
	}

	if c.MinLength < 0 || c.MaxLength < 0 {
		return fmt.Errorf("%w: length limits must not be negative", ErrInvalid)
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("%w: --min-length %d exceeds --max-length %d", ErrInvalid, c.MinLength, c.MaxLength)
	}

	if c.StatsInterval < 0 || c.SweepInterval < 0 {
		return fmt.Errorf("%w: intervals must not be negative", ErrInvalid)
	}
	if c.SweepRate < 0 {
		return fmt.Errorf("%w: --sweep-rate must not be negative", ErrInvalid)
	}

	return nil
}

// LiveOutput returns true when results should be sent to stdout instead of a file.
func (c *Config) LiveOutput() bool {
	return strings.TrimSpace(c.OutputPath) == ""
}
