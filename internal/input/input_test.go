package input

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func collect(t *testing.T, s *Source) []string {
	t.Helper()
	var lines []string
	if err := s.Lines(func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	}); err != nil {
		t.Fatalf("lines: %v", err)
	}
	return lines
}

func TestOpenStdin(t *testing.T) {
	s, err := Open("-", strings.NewReader("a\n\n  b \r\nc"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if s.Name != "stdin" || s.Mapped {
		t.Fatalf("unexpected source %+v", s)
	}
	if got := collect(t, s); strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected lines %v", got)
	}
}

func TestOpenSmallFileStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.txt")
	if err := os.WriteFile(path, []byte("x\ny\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Mapped {
		t.Fatalf("small files must not be mapped")
	}
	if got := collect(t, s); len(got) != 2 {
		t.Fatalf("unexpected lines %v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close must be a no-op: %v", err)
	}
}

func TestOpenLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.txt")
	line := []byte(strings.Repeat("v", 1023) + "\n")
	data := bytes.Repeat(line, LargeFileThreshold/len(line)+2)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	count := 0
	if err := s.Lines(func([]byte) error { count++; return nil }); err != nil {
		t.Fatalf("lines: %v", err)
	}
	if count != LargeFileThreshold/len(line)+2 {
		t.Fatalf("unexpected line count %d", count)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatalf("expected error")
	}
}
