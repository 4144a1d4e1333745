package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func TestStringSliceUnmarshalScalar(t *testing.T) {
	var slice StringSlice
	if err := slice.UnmarshalYAML(newScalarNode(" *.example.com ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slice) != 1 || slice[0] != "*.example.com" {
		t.Fatalf("expected [*.example.com], got %#v", []string(slice))
	}
}

func TestStringSliceUnmarshalSequence(t *testing.T) {
	var slice StringSlice
	if err := slice.UnmarshalYAML(newSequenceNode(" *.example.com ", "", "api.*")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"*.example.com", "api.*"}
	if len(slice) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(slice))
	}
	for i, v := range expected {
		if slice[i] != v {
			t.Fatalf("expected element %d to be %q, got %q", i, v, slice[i])
		}
	}
}

func TestApplyProfileLoadsNamedProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, `profiles:
  quick:
    format: json
    match:
      - "*.example.com"
    workers: 4
    sweep_interval: 250ms
    verbose: true
`)

	cmd := &cobra.Command{Use: "test"}
	cfg := BindFlags(cmd)
	cfg.ConfigPath = path
	cfg.Profile = "quick"
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if err := ApplyProfile(cfg, cmd); err != nil {
		t.Fatalf("ApplyProfile error: %v", err)
	}

	if cfg.Format != FormatJSON {
		t.Fatalf("expected format json, got %s", cfg.Format)
	}
	if len(cfg.Match) != 1 || cfg.Match[0] != "*.example.com" {
		t.Fatalf("expected match [*.example.com], got %#v", cfg.Match)
	}
	if cfg.Workers != 4 {
		t.Fatalf("expected workers 4, got %d", cfg.Workers)
	}
	if cfg.SweepInterval != 250*time.Millisecond {
		t.Fatalf("expected sweep interval 250ms, got %s", cfg.SweepInterval)
	}
	if !cfg.Verbose {
		t.Fatalf("expected verbose true")
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected resolved config path, got %s", cfg.ConfigPath)
	}
}

func TestApplyProfileRespectsFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, `profiles:
  quick:
    format: csv
    workers: 10
`)
	cmd := &cobra.Command{Use: "test"}
	cfg := BindFlags(cmd)
	cfg.ConfigPath = path
	cfg.Profile = "quick"
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := cmd.Flags().Set("workers", "77"); err != nil {
		t.Fatalf("set workers flag: %v", err)
	}

	if err := ApplyProfile(cfg, cmd); err != nil {
		t.Fatalf("ApplyProfile error: %v", err)
	}

	if cfg.Workers != 77 {
		t.Fatalf("expected workers to remain 77, got %d", cfg.Workers)
	}
	if cfg.Format != FormatCSV {
		t.Fatalf("expected format csv, got %s", cfg.Format)
	}
}

func TestApplyProfileUsesDefaultProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, `profiles:
  default:
    min_length: 3
    sweep_rate: 0.5
`)
	cmd := &cobra.Command{Use: "test"}
	cfg := BindFlags(cmd)
	cfg.ConfigPath = path
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if err := ApplyProfile(cfg, cmd); err != nil {
		t.Fatalf("ApplyProfile error: %v", err)
	}

	if cfg.MinLength != 3 || cfg.SweepRate != 0.5 {
		t.Fatalf("unexpected profile values: %d %f", cfg.MinLength, cfg.SweepRate)
	}
}

func TestApplyProfileUnknownProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "profiles:\n  default:\n    workers: 2\n")
	cmd := &cobra.Command{Use: "test"}
	cfg := BindFlags(cmd)
	cfg.ConfigPath = path
	cfg.Profile = "missing"
	if err := ApplyProfile(cfg, cmd); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestApplyProfileMissingConfigReturnsError(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cfg := BindFlags(cmd)
	cfg.ConfigPath = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.Profile = "quick"
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if err := ApplyProfile(cfg, cmd); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func writeConfig(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func newScalarNode(values ...string) *yaml.Node {
	if len(values) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: values[0]}
}

func newSequenceNode(values ...string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
	}
	return node
}
