// Package input reads newline-separated values from files or stdin. Large
// regular files are memory-mapped where the platform allows it.
package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

const (
	scannerBufferSize = 64 * 1024
	maxLineSize       = 4 * 1024 * 1024
	// LargeFileThreshold is the size above which regular files are mapped
	// instead of streamed.
	LargeFileThreshold = 10 * 1024 * 1024
)

// Source is an open input.
type Source struct {
	Name   string
	Mapped bool

	r       io.Reader
	release func() error
}

// Open opens path; "-" or "" selects stdin.
func Open(path string, stdin io.Reader) (*Source, error) {
	if path == "" || path == "-" {
		return &Source{Name: "stdin", r: stdin}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	size := info.Size()
	if size > LargeFileThreshold && info.Mode().IsRegular() && size <= int64(^uint(0)>>1) {
		if data, unmap, err := mapFile(file, int(size)); err == nil {
			file.Close()
			return &Source{Name: path, Mapped: true, r: bytes.NewReader(data), release: unmap}, nil
		}
		// fall back to streaming if the mapping fails
	}
	return &Source{Name: path, r: file, release: file.Close}, nil
}

// Lines calls fn for every non-empty line with surrounding whitespace
// trimmed. The slice is only valid during the call.
func (s *Source) Lines(fn func(line []byte) error) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, scannerBufferSize), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.Name, err)
	}
	return nil
}

// Close releases the file or mapping. Closing stdin is a no-op.
func (s *Source) Close() error {
	if s.release == nil {
		return nil
	}
	release := s.release
	s.release = nil
	return release()
}

// IsTerminal reports whether r is an interactive terminal, in which case
// there is nothing to read from it.
func IsTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
