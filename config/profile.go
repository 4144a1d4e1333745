package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const defaultConfigFilename = ".internpool.yaml"

type fileConfig struct {
	Profiles map[string]profileSettings `yaml:"profiles"`
}

type profileSettings struct {
	OutputPath    *string        `yaml:"output"`
	Format        *string        `yaml:"format"`
	JSONPretty    *bool          `yaml:"json_pretty"`
	Verbose       *bool          `yaml:"verbose"`
	Silent        *bool          `yaml:"silent"`
	LogLevel      *string        `yaml:"log_level"`
	LogFile       *string        `yaml:"log_file"`
	Workers       *int           `yaml:"workers"`
	GCPercent     *int           `yaml:"gc_percent"`
	Match         *StringSlice   `yaml:"match"`
	MinLength     *int           `yaml:"min_length"`
	MaxLength     *int           `yaml:"max_length"`
	StatsInterval *time.Duration `yaml:"stats_interval"`
	SweepInterval *time.Duration `yaml:"sweep_interval"`
	SweepRate     *float64       `yaml:"sweep_rate"`
}

type StringSlice []string

func (s *StringSlice) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var str string
		if err := value.Decode(&str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*s = nil
			return nil
		}
		*s = []string{str}
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		cleaned := make([]string, 0, len(raw))
		for _, item := range raw {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			cleaned = append(cleaned, item)
		}
		*s = cleaned
		return nil
	default:
		return fmt.Errorf("unsupported YAML type %s for string slice", value.ShortTag())
	}
}

func (s *StringSlice) ToSlice() []string {
	if s == nil {
		return nil
	}
	dup := make([]string, len(*s))
	copy(dup, *s)
	return dup
}

// ApplyProfile loads and applies the requested configuration profile to cfg.
// Command-line flag overrides take precedence over profile values.
func ApplyProfile(cfg *Config, cmd *cobra.Command) error {
	path, err := resolveConfigPath(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("locating config file: %w", err)
	}

	if path == "" {
		if cfg.Profile != "" {
			return fmt.Errorf("profile %q requested but no %s file was found", cfg.Profile, defaultConfigFilename)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if len(fc.Profiles) == 0 {
		if cfg.Profile != "" {
			return fmt.Errorf("profile %q not found in %s", cfg.Profile, path)
		}
		return nil
	}

	profileName := cfg.Profile
	if profileName == "" {
		if _, ok := fc.Profiles["default"]; ok {
			profileName = "default"
		}
	}

	if profileName == "" {
		return nil
	}

	profile, ok := fc.Profiles[profileName]
	if !ok {
		return fmt.Errorf("profile %q not found in %s", profileName, path)
	}

	applyProfileSettings(cfg, &profile, cmd)
	cfg.ConfigPath = path
	return nil
}

func applyProfileSettings(cfg *Config, profile *profileSettings, cmd *cobra.Command) {
	flags := cmd.Flags()

	if profile.OutputPath != nil && !flagChanged(flags, "output") {
		cfg.OutputPath = strings.TrimSpace(*profile.OutputPath)
	}
	if profile.Format != nil && !flagChanged(flags, "format") {
		cfg.Format = Format(strings.TrimSpace(*profile.Format))
	}
	if profile.JSONPretty != nil && !flagChanged(flags, "json-pretty") {
		cfg.JSONPretty = *profile.JSONPretty
	}
	if profile.Verbose != nil && !flagChanged(flags, "verbose") {
		cfg.Verbose = *profile.Verbose
	}
	if profile.Silent != nil && !flagChanged(flags, "silent") {
		cfg.Silent = *profile.Silent
	}
	if profile.LogLevel != nil && !flagChanged(flags, "log-level") {
		cfg.LogLevel = strings.TrimSpace(*profile.LogLevel)
	}
	if profile.LogFile != nil && !flagChanged(flags, "log-file") {
		cfg.LogFile = strings.TrimSpace(*profile.LogFile)
	}
	if profile.Workers != nil && !flagChanged(flags, "workers") {
		cfg.Workers = *profile.Workers
	}
	if profile.GCPercent != nil && !flagChanged(flags, "gc-percent") {
		cfg.GCPercent = *profile.GCPercent
	}
	if profile.Match != nil && !flagChanged(flags, "match") {
		cfg.Match = profile.Match.ToSlice()
	}
	if profile.MinLength != nil && !flagChanged(flags, "min-length") {
		cfg.MinLength = *profile.MinLength
	}
	if profile.MaxLength != nil && !flagChanged(flags, "max-length") {
		cfg.MaxLength = *profile.MaxLength
	}
	if profile.StatsInterval != nil && !flagChanged(flags, "stats-interval") {
		cfg.StatsInterval = *profile.StatsInterval
	}
	if profile.SweepInterval != nil && !flagChanged(flags, "sweep-interval") {
		cfg.SweepInterval = *profile.SweepInterval
	}
	if profile.SweepRate != nil && !flagChanged(flags, "sweep-rate") {
		cfg.SweepRate = *profile.SweepRate
	}
}

func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		abs := explicit
		if !filepath.IsAbs(abs) {
			if resolved, err := filepath.Abs(explicit); err == nil {
				abs = resolved
			}
		}
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
			return "", fmt.Errorf("stat %s: %w", abs, err)
		}
		return abs, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, defaultConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	} else {
		return "", fmt.Errorf("getwd: %w", err)
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, defaultConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	flag := flags.Lookup(name)
	if flag == nil {
		return false
	}
	return flag.Changed
}
