package config

import (
	"errors"
	"runtime"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != FormatTXT {
		t.Fatalf("expected default format txt, got %s", cfg.Format)
	}
	if cfg.Workers != runtime.GOMAXPROCS(0) {
		t.Fatalf("expected default workers, got %d", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.GCPercent != 100 {
		t.Fatalf("expected gc percent 100, got %d", cfg.GCPercent)
	}
}

func TestValidateInvalidFormat(t *testing.T) {
	cfg := &Config{Format: "xml"}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateSilentVerboseConflict(t *testing.T) {
	cfg := &Config{Silent: true, Verbose: true}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when silent and verbose set")
	}
}

func TestValidateLengthLimits(t *testing.T) {
	cfg := &Config{MinLength: 10, MaxLength: 5}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	cfg = &Config{MinLength: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative length")
	}
}

func TestValidateNormalisesMatch(t *testing.T) {
	cfg := &Config{Match: []string{" *.example.com ", "", "api.*"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Match) != 2 || cfg.Match[0] != "*.example.com" {
		t.Fatalf("unexpected patterns %#v", cfg.Match)
	}
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug from environment, got %q", cfg.LogLevel)
	}

	cfg = &Config{LogLevel: "warn"}
	if err := cfg.Validate(); err != nil || cfg.LogLevel != "warn" {
		t.Fatalf("explicit level must win over environment, got %q", cfg.LogLevel)
	}
}

func TestLiveOutput(t *testing.T) {
	cfg := &Config{}
	if !cfg.LiveOutput() {
		t.Fatalf("expected live output when path empty")
	}
	cfg.OutputPath = "results.json"
	if cfg.LiveOutput() {
		t.Fatalf("expected file output when path set")
	}
}
